// Package permission holds runtime permission grants and the pending prompt.
package permission

import (
	"errors"
	"fmt"
	"sync"

	"wear_relay/internal/logger"
	"wear_relay/internal/platform"
	"wear_relay/internal/protocol"
)

// Policy decides how a permission request is resolved.
type Policy string

const (
	PolicyPrompt Policy = "prompt"
	PolicyGrant  Policy = "grant"
	PolicyDeny   Policy = "deny"
)

var (
	ErrNoPendingPrompt = errors.New("no pending permission prompt")
	ErrUnknownPolicy   = errors.New("unknown permission policy")
)

// ParsePolicy accepts prompt, grant or deny. Empty means prompt.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyPrompt:
		return PolicyPrompt, nil
	case PolicyGrant, PolicyDeny:
		return Policy(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Prompt is a permission request waiting for an answer.
type Prompt struct {
	RequestCode int      `json:"request_code"`
	Permissions []string `json:"permissions"`
}

// Snapshot is the externally visible state of the store.
type Snapshot struct {
	Policy  Policy            `json:"policy"`
	States  map[string]string `json:"states"`
	Pending *Prompt           `json:"pending,omitempty"`
}

type pending struct {
	Prompt
	listener platform.PermissionResultListener
}

// Store implements platform.PermissionChecker. Grants live in memory only.
type Store struct {
	mu      sync.Mutex
	policy  Policy
	states  map[string]protocol.PermissionState
	pending *pending
	log     *logger.Logger
}

var _ platform.PermissionChecker = (*Store)(nil)

func NewStore(policy Policy, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		policy: policy,
		states: make(map[string]protocol.PermissionState),
		log:    log,
	}
}

func (s *Store) CheckSelfPermission(perm string) bool {
	return s.State(perm) == protocol.PermissionStateGranted
}

// State reports the current state of perm.
func (s *Store) State(perm string) protocol.PermissionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[perm]
}

// RequestPermissions resolves the request right away under the grant and deny
// policies. Under prompt it replaces any earlier pending prompt.
func (s *Store) RequestPermissions(l platform.PermissionResultListener, perms []string, requestCode int) {
	s.mu.Lock()
	switch s.policy {
	case PolicyGrant, PolicyDeny:
		granted := s.policy == PolicyGrant
		results := s.resolveLocked(perms, granted)
		s.mu.Unlock()
		s.log.Infow("permission_auto_resolved", "request_code", requestCode, "granted", granted)
		if l != nil {
			l.OnRequestPermissionsResult(requestCode, perms, results)
		}
		return
	}
	if s.pending != nil {
		s.log.Debugw("permission_prompt_replaced", "request_code", s.pending.RequestCode)
	}
	s.pending = &pending{
		Prompt:   Prompt{RequestCode: requestCode, Permissions: append([]string(nil), perms...)},
		listener: l,
	}
	s.mu.Unlock()
	s.log.Infow("permission_prompt_pending", "request_code", requestCode, "permissions", perms)
}

// Answer resolves the pending prompt and reports the result to its listener.
func (s *Store) Answer(requestCode int, granted bool) error {
	s.mu.Lock()
	p := s.pending
	if p == nil || p.RequestCode != requestCode {
		s.mu.Unlock()
		return ErrNoPendingPrompt
	}
	s.pending = nil
	results := s.resolveLocked(p.Permissions, granted)
	s.mu.Unlock()

	s.log.Infow("permission_answered", "request_code", requestCode, "granted", granted)
	if p.listener != nil {
		p.listener.OnRequestPermissionsResult(requestCode, p.Permissions, results)
	}
	return nil
}

// Pending returns the prompt awaiting an answer, if any.
func (s *Store) Pending() (Prompt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return Prompt{}, false
	}
	return s.pending.Prompt, true
}

// Reset forgets every grant and the pending prompt.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.states)
	s.pending = nil
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{Policy: s.policy, States: make(map[string]string, len(s.states))}
	for perm, st := range s.states {
		snap.States[perm] = st.String()
	}
	if s.pending != nil {
		p := s.pending.Prompt
		snap.Pending = &p
	}
	return snap
}

func (s *Store) resolveLocked(perms []string, granted bool) []int {
	state, result := protocol.PermissionStateDenied, protocol.PermissionDenied
	if granted {
		state, result = protocol.PermissionStateGranted, protocol.PermissionGranted
	}
	results := make([]int, len(perms))
	for i, perm := range perms {
		s.states[perm] = state
		results[i] = result
	}
	return results
}
