package envelope

import (
	"errors"

	"github.com/nolik/nolik-cli/internal/codec"
)

// Sentinel MessageError kinds (spec §7). ErrDecryption is the same
// value as codec.ErrDecryption so callers can compare against one
// sentinel across the codec, sealed-box and envelope layers; the rest
// are specific to group construction.
var (
	// ErrDecryption collapses every codec, sealed-box or structural
	// matching failure in the decrypt pipeline.
	ErrDecryption = codec.ErrDecryption

	// ErrDuplicateRecipient is raised when MessageInput lists the same
	// public key more than once, or a recipient equals the sender.
	ErrDuplicateRecipient = errors.New("duplicate recipient in group")

	// ErrNoRecipients is raised when MessageInput has zero recipients.
	ErrNoRecipients = errors.New("message input has no recipients")
)
