package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	"github.com/cmendoza/biosettle/internal/storage"
)

// Adapter persists casbin policy rules through storage.Storage, so role
// grants made at runtime survive a restart.
type Adapter struct {
	storage storage.Storage
}

func NewAdapter(s storage.Storage) *Adapter {
	return &Adapter{storage: s}
}

func toCasbinRule(ptype string, fields []string) storage.CasbinRule {
	r := storage.CasbinRule{PType: ptype}
	dst := []*string{&r.V0, &r.V1, &r.V2, &r.V3, &r.V4, &r.V5}
	for i, v := range fields {
		if i >= len(dst) {
			break
		}
		*dst[i] = v
	}
	return r
}

// LoadPolicy loads all persisted rules into the casbin model.
func (a *Adapter) LoadPolicy(m model.Model) error {
	rules, err := a.storage.LoadCasbinRules(context.Background())
	if err != nil {
		return err
	}
	for _, rule := range rules {
		parts := []string{rule.PType}
		for _, v := range []string{rule.V0, rule.V1, rule.V2, rule.V3, rule.V4, rule.V5} {
			if v == "" {
				break
			}
			parts = append(parts, v)
		}
		persist.LoadPolicyLine(strings.Join(parts, ", "), m)
	}
	return nil
}

// SavePolicy is not supported; rules are persisted incrementally through
// AddPolicy and RemovePolicy.
func (a *Adapter) SavePolicy(m model.Model) error {
	return errors.New("not implemented")
}

func (a *Adapter) AddPolicy(sec string, ptype string, rule []string) error {
	return a.storage.AddCasbinRule(context.Background(), toCasbinRule(ptype, rule))
}

func (a *Adapter) RemovePolicy(sec string, ptype string, rule []string) error {
	return a.storage.RemoveCasbinRule(context.Background(), toCasbinRule(ptype, rule))
}

// RemoveFilteredPolicy is not supported; the storage layer only deletes
// exact rule matches.
func (a *Adapter) RemoveFilteredPolicy(sec string, ptype string, fieldIndex int, fieldValues ...string) error {
	return errors.New("not implemented")
}
