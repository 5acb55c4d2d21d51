package airdrop

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mrz1836/crossdrop/internal/fileutil"
)

// Phase is where an owner is in the approve then send flow.
type Phase string

// Phases, in order.
const (
	PhaseApprove Phase = "approve" // nothing approved yet
	PhaseSend    Phase = "send"    // approval mined, recipients may be entered
	PhaseSent    Phase = "sent"    // sendToMany mined
)

// ErrCorruptSessions is returned alongside a fresh session when the
// sessions file could not be decoded. The bad file is moved aside.
var ErrCorruptSessions = errors.New("sessions file is corrupted")

// Session is the persisted flow state for one owner.
type Session struct {
	Owner          common.Address   `json:"owner"`
	Phase          Phase            `json:"phase"`
	ApprovedAmount string           `json:"approved_amount,omitempty"` // base units
	ApproveTx      *common.Hash     `json:"approve_tx,omitempty"`
	SentAmount     string           `json:"sent_amount,omitempty"` // base units
	SendTx         *common.Hash     `json:"send_tx,omitempty"`
	Recipients     []common.Address `json:"recipients,omitempty"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ApprovedAmountInt returns the approved amount, or nil when none is recorded.
func (s *Session) ApprovedAmountInt() *big.Int {
	v, ok := new(big.Int).SetString(s.ApprovedAmount, 10)
	if !ok {
		return nil
	}
	return v
}

type sessionFile struct {
	Version  int                 `json:"version"`
	Sessions map[string]*Session `json:"sessions"`
}

// SessionStore persists sessions in a single JSON file keyed by owner.
type SessionStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewSessionStore creates a store backed by path.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path, now: time.Now}
}

// Path returns the sessions file path.
func (s *SessionStore) Path() string {
	return s.path
}

// Get returns the owner's session, or a new one in PhaseApprove.
func (s *SessionStore) Get(owner common.Address) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if sess, ok := f.Sessions[owner.Hex()]; ok {
		return sess, err
	}
	return &Session{Owner: owner, Phase: PhaseApprove}, err
}

// Put stores sess and stamps UpdatedAt.
func (s *SessionStore) Put(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil && !errors.Is(err, ErrCorruptSessions) {
		return err
	}
	sess.UpdatedAt = s.now().UTC()
	f.Sessions[sess.Owner.Hex()] = sess
	return fileutil.WriteJSON(s.path, f)
}

// Delete forgets the owner's session.
func (s *SessionStore) Delete(owner common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil && !errors.Is(err, ErrCorruptSessions) {
		return err
	}
	if _, ok := f.Sessions[owner.Hex()]; !ok {
		return nil
	}
	delete(f.Sessions, owner.Hex())
	return fileutil.WriteJSON(s.path, f)
}

func (s *SessionStore) load() (*sessionFile, error) {
	f := &sessionFile{Version: 1, Sessions: make(map[string]*Session)}

	_, err := fileutil.ReadJSON(s.path, f)
	if errors.Is(err, fileutil.ErrCorrupt) {
		fresh := &sessionFile{Version: 1, Sessions: make(map[string]*Session)}
		moved, qerr := fileutil.Quarantine(s.path)
		if qerr != nil {
			return fresh, fmt.Errorf("%w: %w (%w)", ErrCorruptSessions, err, qerr)
		}
		return fresh, fmt.Errorf("%w: %w (moved to %s)", ErrCorruptSessions, err, moved)
	}
	if err != nil {
		return f, fmt.Errorf("reading sessions: %w", err)
	}
	if f.Sessions == nil {
		f.Sessions = make(map[string]*Session)
	}
	return f, nil
}
