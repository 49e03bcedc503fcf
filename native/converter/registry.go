package converter

import (
	"fmt"
	"strings"
)

// Registry exposes the administrative surface over the converter store:
// converter creation, converter updates, reserve configuration and the
// network settings. Creation is owner-authorized; every later mutation
// requires the registry administrator unless the permissive owner-mutation
// policy has been enabled.
type Registry struct {
	store          *Store
	admin          string
	ownerMutations bool
}

// NewRegistry constructs a registry with the supplied administrator identity.
func NewRegistry(store *Store, admin string) *Registry {
	return &Registry{store: store, admin: strings.TrimSpace(admin)}
}

// SetOwnerMutations toggles the permissive policy under which a converter's
// owner may update it after creation. The default, stricter policy reserves
// post-creation mutation for the administrator.
func (r *Registry) SetOwnerMutations(enabled bool) {
	r.ownerMutations = enabled
}

// Store returns the underlying converter store.
func (r *Registry) Store() *Store {
	return r.store
}

func (r *Registry) isAdmin(caller string) bool {
	return r.admin != "" && caller == r.admin
}

func (r *Registry) authorizeMutation(caller string, c *Converter) error {
	if r.isAdmin(caller) {
		return nil
	}
	if r.ownerMutations && caller != "" && caller == c.Owner {
		return nil
	}
	return ErrUnauthorized
}

// SetSettings replaces the network settings singleton. Administrator only.
func (r *Registry) SetSettings(caller string, enabled bool, maxFee uint16) error {
	if !r.isAdmin(caller) {
		return ErrUnauthorized
	}
	if maxFee > MaxFee {
		return fmt.Errorf("%w: max fee must be lower or equal to %d", ErrFeeTooHigh, MaxFee)
	}
	return r.store.PutSettings(Settings{Enabled: enabled, MaxFee: maxFee})
}

// CreateConverter registers a converter governing the supplied currency,
// settled through the supplied account. The creating owner authorizes the
// call; the fee is bounded by the network maximum and the currency code must
// not already be registered.
func (r *Registry) CreateConverter(caller, owner, account, tokenContract string, currency Symbol, smartEnabled, requireBalance bool, fee uint16) error {
	owner = strings.TrimSpace(owner)
	if owner == "" || (caller != owner && !r.isAdmin(caller)) {
		return ErrUnauthorized
	}
	if !currency.Valid() {
		return fmt.Errorf("converter: invalid governed currency %q", currency.Code)
	}
	settings, err := r.store.Settings()
	if err != nil {
		return err
	}
	if fee > settings.MaxFee {
		return ErrFeeTooHigh
	}
	if _, ok, err := r.store.Get(currency.Code); err != nil {
		return err
	} else if ok {
		return ErrDuplicateConverter
	}
	return r.store.Put(&Converter{
		Currency:       currency,
		Account:        strings.TrimSpace(account),
		TokenContract:  strings.TrimSpace(tokenContract),
		Owner:          owner,
		Fee:            fee,
		Enabled:        true,
		SmartEnabled:   smartEnabled,
		RequireBalance: requireBalance,
	})
}

// UpdateConverter replaces the mutable converter flags and fee.
func (r *Registry) UpdateConverter(caller, code string, enabled, smartEnabled, requireBalance bool, fee uint16) error {
	c, ok, err := r.store.Get(code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConverterNotFound
	}
	if err := r.authorizeMutation(caller, c); err != nil {
		return err
	}
	settings, err := r.store.Settings()
	if err != nil {
		return err
	}
	if fee > settings.MaxFee {
		return ErrFeeTooHigh
	}
	c.Enabled = enabled
	c.SmartEnabled = smartEnabled
	c.RequireBalance = requireBalance
	c.Fee = fee
	return r.store.Put(c)
}

// SetReserve adds a reserve to the converter or updates an existing one. The
// summed ratio bound is checked after the upsert; a violating call leaves the
// stored record untouched.
func (r *Registry) SetReserve(caller, converterCode, contract string, currency Symbol, ratio uint64, purchaseEnabled bool) error {
	c, ok, err := r.store.Get(converterCode)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConverterNotFound
	}
	if err := r.authorizeMutation(caller, c); err != nil {
		return err
	}
	if !currency.Valid() {
		return fmt.Errorf("converter: invalid reserve currency %q", currency.Code)
	}
	if currency.Code == c.Currency.Code {
		return fmt.Errorf("converter: governed currency cannot be its own reserve")
	}
	if err := c.UpsertReserve(strings.TrimSpace(contract), currency, ratio, purchaseEnabled); err != nil {
		return err
	}
	return r.store.Put(c)
}
