package insurance

import "github.com/shopspring/decimal"

// Policy is a micro health insurance plan.
type Policy struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Premium            decimal.Decimal `json:"premium"`
	Frequency          string          `json:"frequency"`
	CoverageHighlights []string        `json:"coverageHighlights"`
	AnnualLimit        decimal.Decimal `json:"annualLimit"`
	Details            string          `json:"details"`
}

var catalog = []Policy{
	{
		ID:                 "basic_health_cover",
		Name:               "Basic Health Cover",
		Premium:            decimal.New(200, -2),
		Frequency:          "monthly",
		CoverageHighlights: []string{"Tele-Doctor Consultations", "Basic Prescribed Medication", "Emergency Hotline Access"},
		AnnualLimit:        decimal.NewFromInt(250),
		Details:            "Essential remote health services for peace of mind. Covers basic tele-medical needs.",
	},
	{
		ID:                 "family_vitality_plan",
		Name:               "Family Vitality Plan",
		Premium:            decimal.New(750, -2),
		Frequency:          "monthly",
		CoverageHighlights: []string{"Covers 1 Adult + 1 Child (Tele-Doctor)", "Select Wellness Tips", "Basic Virtual Consults"},
		AnnualLimit:        decimal.NewFromInt(750),
		Details:            "Affordable virtual cover for a small family, ensuring access to basic remote healthcare.",
	},
	{
		ID:                 "senior_wellness_shield",
		Name:               "Senior Wellness Shield",
		Premium:            decimal.New(400, -2),
		Frequency:          "monthly",
		CoverageHighlights: []string{"Chronic Condition Info Line", "Annual Wellness Call", "Limited Health Reminders"},
		AnnualLimit:        decimal.NewFromInt(400),
		Details:            "Tailored for seniors, focusing on virtual wellness support and health information.",
	},
	{
		ID:                 "accident_protect_lite",
		Name:               "Accident Protect Lite",
		Premium:            decimal.New(150, -2),
		Frequency:          "monthly",
		CoverageHighlights: []string{"Minor Accidental Injury Info", "First Aid Guidance Call", "Small Emergency Fund Access (conditions apply)"},
		AnnualLimit:        decimal.NewFromInt(150),
		Details:            "Provides basic information and support for minor accidents, helping with initial guidance.",
	},
}

// Catalog returns the policies on offer.
func Catalog() []Policy {
	out := make([]Policy, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a policy by id.
func Lookup(id string) (Policy, bool) {
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Policy{}, false
}
