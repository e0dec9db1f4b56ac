package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrNoCredit         = errors.New("no unredeemed credit")
	ErrCreditRedeemed   = errors.New("credit already redeemed")
	ErrInvalidCreditRef = errors.New("unknown payment reference")
	ErrEmptyPhotoSet    = errors.New("no source photos")
	ErrEmptyScenarioSet = errors.New("no scenarios")
	ErrUnknownScenario  = errors.New("unknown scenario")
	ErrInvalidSlot      = errors.New("invalid profile slot")
)
