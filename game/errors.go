package game

import "errors"

// Rule violations. Each is reported to the acting player only; the match is left unchanged.
var (
	ErrUnknownPlayer    = errors.New("player is not in this match")
	ErrMatchEnded       = errors.New("match has ended")
	ErrNotYourTurn      = errors.New("it is not your turn")
	ErrCardNotInHand    = errors.New("card is not in your hand")
	ErrInsufficientMana = errors.New("not enough mana")
	ErrInvalidTarget    = errors.New("invalid target")
	ErrFieldFull        = errors.New("your field is full")
	ErrAttackerNotFound = errors.New("attacker not found")
	ErrCannotAttack     = errors.New("that unit cannot attack right now")
	ErrMustAttackTaunt  = errors.New("you must attack a unit with taunt")
)
