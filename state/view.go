// Package state implements the authoritative in-memory store of all
// mutable chain state plus its per-block archival (spec.md §4.1).
package state

import "github.com/NethermindEth/juno/core/felt"

// ViewKind discriminates the View selector every read operation takes.
type ViewKind int

const (
	ViewLatest ViewKind = iota
	ViewPreConfirmed
	ViewByHash
	ViewByNumber
)

// View selects which snapshot of the state a read targets.
type View struct {
	Kind   ViewKind
	Hash   *felt.Felt
	Number uint64
}

// Latest is the most common selector: the last sealed block's state.
var Latest = View{Kind: ViewLatest}

// PreConfirmed selects the mutable pre-confirmed buffer's state.
var PreConfirmed = View{Kind: ViewPreConfirmed}

// ByNumber selects a historical sealed state by block number.
func ByNumber(n uint64) View { return View{Kind: ViewByNumber, Number: n} }

// ByHash selects a historical sealed state by block hash.
func ByHash(h *felt.Felt) View { return View{Kind: ViewByHash, Hash: h} }

// Archive selects how much history StateStore retains (spec.md §4.1).
type Archive int

const (
	ArchiveNone Archive = iota
	ArchiveFull
)
