// Package repos provides typed accessors over the key/value store for the
// fleet's persistent state: the account list, per-template variable sets,
// per-template revision records, and the global auto policy.
package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/edgefleet/fleetman/pkg/store"
	"github.com/edgefleet/fleetman/pkg/types"
)

// Keys used in the state store.
const (
	accountsKey = "accounts"
	policyKey   = "auto_policy"

	bindingsKeyPrefix = "vars_"
	revisionKeyPrefix = "version_"
)

// StateRepo wraps the core store with typed, JSON-encoded accessors.
type StateRepo struct {
	core store.Store
}

// NewStateRepo creates a StateRepo over the given store.
func NewStateRepo(core store.Store) *StateRepo {
	return &StateRepo{core: core}
}

// Core returns the underlying store.
func (r *StateRepo) Core() store.Store { return r.core }

// Accounts returns the stored account list; an empty list when none was ever
// saved.
func (r *StateRepo) Accounts(ctx context.Context) ([]types.Account, error) {
	var accounts []types.Account
	err := r.get(ctx, accountsKey, &accounts)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return accounts, err
}

// SaveAccounts replaces the stored account list.
func (r *StateRepo) SaveAccounts(ctx context.Context, accounts []types.Account) error {
	return r.put(ctx, accountsKey, accounts)
}

// Bindings returns the working variable set for a template, or nil when none
// was ever saved.
func (r *StateRepo) Bindings(ctx context.Context, templateID string) ([]types.VariableBinding, error) {
	var set []types.VariableBinding
	err := r.get(ctx, bindingsKeyPrefix+templateID, &set)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return set, err
}

// SaveBindings replaces the working variable set for a template.
func (r *StateRepo) SaveBindings(ctx context.Context, templateID string, set []types.VariableBinding) error {
	return r.put(ctx, bindingsKeyPrefix+templateID, set)
}

// Revision returns the last-deployed revision record for a template, or nil
// before the first deploy.
func (r *StateRepo) Revision(ctx context.Context, templateID string) (*types.RevisionRecord, error) {
	var rec types.RevisionRecord
	err := r.get(ctx, revisionKeyPrefix+templateID, &rec)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveRevision overwrites the revision record for a template.
func (r *StateRepo) SaveRevision(ctx context.Context, templateID string, rec *types.RevisionRecord) error {
	return r.put(ctx, revisionKeyPrefix+templateID, rec)
}

// Policy returns the global auto policy, or nil when none was ever saved.
func (r *StateRepo) Policy(ctx context.Context) (*types.AutoPolicy, error) {
	var policy types.AutoPolicy
	err := r.get(ctx, policyKey, &policy)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

// SavePolicy replaces the global auto policy.
func (r *StateRepo) SavePolicy(ctx context.Context, policy *types.AutoPolicy) error {
	return r.put(ctx, policyKey, policy)
}

func (r *StateRepo) get(ctx context.Context, key string, out interface{}) error {
	data, err := r.core.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return nil
}

func (r *StateRepo) put(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	return r.core.Put(ctx, key, data)
}
