package ledger

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zimsave/zimsave_plus/internal/store"
	"golang.org/x/crypto/blake2b"
)

// Storage keys owned by the ledger.
const (
	KeyWallet  = "zimsave_wallet_v1"
	KeyGroups  = "zimsave_mukando_groups_v1"
	KeyGoals   = "zimsave_savings_goals_v1"
	KeyJournal = "zimsave_ledger_journal_v1"
)

var errBadChecksum = errors.New("journal checksum mismatch")

// journalRecord carries a full encoded state while the individual keys are
// being rewritten.
type journalRecord struct {
	Wallet   json.RawMessage `json:"wallet"`
	Groups   json.RawMessage `json:"groups"`
	Goals    json.RawMessage `json:"goals"`
	Checksum string          `json:"checksum"`
}

type encodedState struct {
	wallet []byte
	groups []byte
	goals  []byte
}

func encodeState(s State) (encodedState, error) {
	var (
		enc encodedState
		err error
	)
	if enc.wallet, err = json.Marshal(s.Wallet); err != nil {
		return enc, fmt.Errorf("encode wallet: %w", err)
	}
	if enc.groups, err = json.Marshal(s.Groups); err != nil {
		return enc, fmt.Errorf("encode groups: %w", err)
	}
	if enc.goals, err = json.Marshal(s.Goals); err != nil {
		return enc, fmt.Errorf("encode goals: %w", err)
	}
	return enc, nil
}

func (e encodedState) pairs() map[string]string {
	return map[string]string{
		KeyWallet: string(e.wallet),
		KeyGroups: string(e.groups),
		KeyGoals:  string(e.goals),
	}
}

func (e encodedState) checksum() string {
	sum := blake2b.Sum256(bytes.Join([][]byte{e.wallet, e.groups, e.goals}, []byte{'\n'}))
	return hex.EncodeToString(sum[:])
}

func (e encodedState) journal() (string, error) {
	raw, err := json.Marshal(journalRecord{
		Wallet:   e.wallet,
		Groups:   e.groups,
		Goals:    e.goals,
		Checksum: e.checksum(),
	})
	if err != nil {
		return "", fmt.Errorf("encode journal: %w", err)
	}
	return string(raw), nil
}

func decodeJournal(raw string) (State, encodedState, error) {
	var rec journalRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return State{}, encodedState{}, err
	}
	enc := encodedState{wallet: rec.Wallet, groups: rec.Groups, goals: rec.Goals}
	if enc.checksum() != rec.Checksum {
		return State{}, encodedState{}, errBadChecksum
	}
	s := Empty()
	if err := json.Unmarshal(rec.Wallet, &s.Wallet); err != nil {
		return State{}, encodedState{}, err
	}
	if err := json.Unmarshal(rec.Groups, &s.Groups); err != nil {
		return State{}, encodedState{}, err
	}
	if err := json.Unmarshal(rec.Goals, &s.Goals); err != nil {
		return State{}, encodedState{}, err
	}
	return normalize(s), enc, nil
}

// persist writes s to the store. A nil return means the state is committed.
// Stores that batch commit in one call; otherwise the journal write is the
// commit point and later failures are repaired by the next load.
func persist(ctx context.Context, st store.Store, logger *slog.Logger, s State) error {
	enc, err := encodeState(s)
	if err != nil {
		return err
	}
	if b, ok := st.(store.Batcher); ok {
		if err := b.SetMany(ctx, enc.pairs()); err != nil {
			return fmt.Errorf("persist ledger: %w", err)
		}
		return nil
	}

	journal, err := enc.journal()
	if err != nil {
		return err
	}
	if err := st.Set(ctx, KeyJournal, journal); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	if err := writeKeys(ctx, st, enc); err != nil {
		logger.Warn("ledger keys left behind journal", "error", err)
		return nil
	}
	if err := st.Remove(ctx, KeyJournal); err != nil {
		logger.Warn("ledger journal not cleared", "error", err)
	}
	return nil
}

func writeKeys(ctx context.Context, st store.Store, enc encodedState) error {
	for _, kv := range []struct {
		key string
		val []byte
	}{
		{KeyWallet, enc.wallet},
		{KeyGroups, enc.groups},
		{KeyGoals, enc.goals},
	} {
		if err := st.Set(ctx, kv.key, string(kv.val)); err != nil {
			return fmt.Errorf("write %s: %w", kv.key, err)
		}
	}
	return nil
}

// hydrate reads the persisted state, recovering from a pending journal first.
func hydrate(ctx context.Context, st store.Store, logger *slog.Logger) (State, error) {
	raw, ok, err := st.Get(ctx, KeyJournal)
	if err != nil {
		return State{}, fmt.Errorf("read journal: %w", err)
	}
	if ok {
		s, enc, err := decodeJournal(raw)
		if err == nil {
			logger.Warn("recovering ledger from journal")
			if err := writeKeys(ctx, st, enc); err != nil {
				return State{}, fmt.Errorf("replay journal: %w", err)
			}
			if err := st.Remove(ctx, KeyJournal); err != nil {
				logger.Warn("ledger journal not cleared", "error", err)
			}
			return s, nil
		}
		logger.Warn("discarding torn ledger journal", "error", err)
		if err := st.Remove(ctx, KeyJournal); err != nil {
			return State{}, fmt.Errorf("discard journal: %w", err)
		}
	}

	s := Empty()
	if err := readKey(ctx, st, logger, KeyWallet, &s.Wallet); err != nil {
		return State{}, err
	}
	if err := readKey(ctx, st, logger, KeyGroups, &s.Groups); err != nil {
		return State{}, err
	}
	if err := readKey(ctx, st, logger, KeyGoals, &s.Goals); err != nil {
		return State{}, err
	}
	return normalize(s), nil
}

// readKey decodes key into dst. Absent and malformed values leave dst at its
// default.
func readKey[T any](ctx context.Context, st store.Store, logger *slog.Logger, key string, dst *T) error {
	raw, ok, err := st.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return nil
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		logger.Warn("discarding malformed ledger value", "key", key, "error", err)
		return nil
	}
	*dst = v
	return nil
}

// normalize replaces null collections with empty ones so that a reload
// encodes exactly as the original write.
func normalize(s State) State {
	if s.Wallet.Transactions == nil {
		s.Wallet.Transactions = []Transaction{}
	}
	if s.Groups == nil {
		s.Groups = []MukandoGroup{}
	}
	if s.Goals == nil {
		s.Goals = []SavingsGoal{}
	}
	return s
}
