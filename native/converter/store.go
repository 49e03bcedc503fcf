package converter

import (
	"fmt"
	"strconv"
	"strings"
)

// Store persists converter records and the network settings in the underlying
// key-value state. Records are kept as RLP-friendly mirror structs; signed
// balances are stored as decimal strings.
type Store struct {
	store Storage
}

// NewStore constructs a store bound to the provided storage backend.
func NewStore(store Storage) *Store {
	return &Store{store: store}
}

type storedReserve struct {
	Contract        string
	Code            string
	Precision       uint8
	Ratio           uint64
	PurchaseEnabled bool
	Balance         string
}

type storedConverter struct {
	Code           string
	Precision      uint8
	Account        string
	TokenContract  string
	Owner          string
	Fee            uint64
	Enabled        bool
	SmartEnabled   bool
	RequireBalance bool
	Reserves       []storedReserve
}

type storedSettings struct {
	Enabled bool
	MaxFee  uint64
}

type storedAccountRef struct {
	Code string
}

func toStoredConverter(c *Converter) storedConverter {
	stored := storedConverter{
		Code:           c.Currency.Code,
		Precision:      c.Currency.Precision,
		Account:        c.Account,
		TokenContract:  c.TokenContract,
		Owner:          c.Owner,
		Fee:            uint64(c.Fee),
		Enabled:        c.Enabled,
		SmartEnabled:   c.SmartEnabled,
		RequireBalance: c.RequireBalance,
	}
	for _, r := range c.Reserves {
		stored.Reserves = append(stored.Reserves, storedReserve{
			Contract:        r.Contract,
			Code:            r.Currency.Code,
			Precision:       r.Currency.Precision,
			Ratio:           r.Ratio,
			PurchaseEnabled: r.PurchaseEnabled,
			Balance:         strconv.FormatInt(r.Balance, 10),
		})
	}
	return stored
}

func fromStoredConverter(stored *storedConverter) (*Converter, error) {
	c := &Converter{
		Currency:       Symbol{Code: stored.Code, Precision: stored.Precision},
		Account:        stored.Account,
		TokenContract:  stored.TokenContract,
		Owner:          stored.Owner,
		Fee:            uint16(stored.Fee),
		Enabled:        stored.Enabled,
		SmartEnabled:   stored.SmartEnabled,
		RequireBalance: stored.RequireBalance,
	}
	for _, r := range stored.Reserves {
		balance, err := strconv.ParseInt(r.Balance, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("converter: decode reserve balance: %w", err)
		}
		c.Reserves = append(c.Reserves, Reserve{
			Contract:        r.Contract,
			Currency:        Symbol{Code: r.Code, Precision: r.Precision},
			Ratio:           r.Ratio,
			PurchaseEnabled: r.PurchaseEnabled,
			Balance:         balance,
		})
	}
	return c, nil
}

// Put writes the converter record and its account index entry.
func (s *Store) Put(c *Converter) error {
	if c == nil {
		return fmt.Errorf("converter: record must not be nil")
	}
	if !c.Currency.Valid() {
		return fmt.Errorf("converter: invalid governed currency %q", c.Currency.Code)
	}
	stored := toStoredConverter(c)
	if err := s.store.KVPut(converterKey(c.Currency.Code), stored); err != nil {
		return err
	}
	account := strings.TrimSpace(c.Account)
	if account == "" {
		return fmt.Errorf("converter: settlement account required")
	}
	return s.store.KVPut(accountKey(account), storedAccountRef{Code: c.Currency.Code})
}

// Get retrieves the converter governing the supplied currency code.
func (s *Store) Get(code string) (*Converter, bool, error) {
	var stored storedConverter
	ok, err := s.store.KVGet(converterKey(code), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	c, err := fromStoredConverter(&stored)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

// GetByAccount retrieves the converter settled through the supplied account.
func (s *Store) GetByAccount(account string) (*Converter, bool, error) {
	var ref storedAccountRef
	ok, err := s.store.KVGet(accountKey(account), &ref)
	if err != nil || !ok {
		return nil, false, err
	}
	return s.Get(ref.Code)
}

// Settings loads the network settings. A missing record yields the zero
// settings, which leave conversions disabled.
func (s *Store) Settings() (Settings, error) {
	var stored storedSettings
	ok, err := s.store.KVGet(settingsKey, &stored)
	if err != nil || !ok {
		return Settings{}, err
	}
	return Settings{Enabled: stored.Enabled, MaxFee: uint16(stored.MaxFee)}, nil
}

// PutSettings writes the network settings singleton.
func (s *Store) PutSettings(settings Settings) error {
	return s.store.KVPut(settingsKey, storedSettings{Enabled: settings.Enabled, MaxFee: uint64(settings.MaxFee)})
}

// AdjustReserveBalance applies a signed delta to the tracked balance of one
// reserve and persists the converter record.
func (s *Store) AdjustReserveBalance(converterCode, reserveCode string, delta int64) error {
	c, ok, err := s.Get(converterCode)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConverterNotFound
	}
	if err := c.AdjustReserveBalance(reserveCode, delta); err != nil {
		return err
	}
	return s.Put(c)
}
