package identity

// Profile is the locally stored user. There are no credentials: whoever
// holds the device holds the profile.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Credentials identify a returning user.
type Credentials struct {
	Email string
	Phone string
}

// SignupInput registers a new profile.
type SignupInput struct {
	Name  string
	Email string
	Phone string
}
