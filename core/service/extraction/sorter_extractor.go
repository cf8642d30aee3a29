// Package extraction turns raw message-store handles into cleaned contacts.
package extraction

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"sorter/core/domain"
	"sorter/core/port/out"
	"sorter/pkg/normalize"
)

// Filter thresholds for handles with no address-book match.
const (
	MinTwoWayMessages  = 3
	BotSentRatio       = 0.05
	BotRatioMinMessage = 10
	TopContactsLimit   = 10
)

// SkipReason names why a handle was left out.
type SkipReason string

const (
	SkipShortCode   SkipReason = "short-code"
	SkipBot         SkipReason = "bot"
	SkipLowActivity SkipReason = "low-activity"
)

// Summary counts what happened to every handle.
type Summary struct {
	Handles             int  `json:"handles"`
	SkippedShortCodes   int  `json:"skippedShortCodes"`
	SkippedBots         int  `json:"skippedBots"`
	SkippedLowActivity  int  `json:"skippedLowActivity"`
	Saved               int  `json:"saved"`
	Unsaved             int  `json:"unsaved"`
	AddressBookDegraded bool `json:"addressBookDegraded"`
}

// Extracted returns the number of contacts that survived filtering.
func (s Summary) Extracted() int {
	return s.Saved + s.Unsaved
}

// Result is the output of one extraction pass.
type Result struct {
	Contacts []domain.ExtractedContact
	Summary  Summary
}

// Top returns up to n contacts in store order (busiest first).
func (r *Result) Top(n int) []domain.ExtractedContact {
	if n > len(r.Contacts) {
		n = len(r.Contacts)
	}
	return r.Contacts[:n]
}

// Extractor reads handles and the address book and applies data-quality filters.
type Extractor struct {
	store out.MessageStore
	book  out.AddressBook
	log   zerolog.Logger
}

// NewExtractor creates a new Extractor. book may be nil.
func NewExtractor(store out.MessageStore, book out.AddressBook, log zerolog.Logger) *Extractor {
	return &Extractor{
		store: store,
		book:  book,
		log:   log.With().Str("component", "extractor").Logger(),
	}
}

// Extract runs one pass. A store failure is returned as-is and aborts the pass;
// an address book failure only degrades matching.
func (e *Extractor) Extract(ctx context.Context) (*Result, error) {
	saved := e.loadSavedContacts(ctx)

	handles, err := e.store.Handles(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{Contacts: make([]domain.ExtractedContact, 0, len(handles))}
	res.Summary.Handles = len(handles)
	res.Summary.AddressBookDegraded = saved == nil

	for _, h := range handles {
		info, isSaved := lookup(saved, h.Identifier)

		if reason, skip := Skip(h, isSaved); skip {
			switch reason {
			case SkipShortCode:
				res.Summary.SkippedShortCodes++
			case SkipBot:
				res.Summary.SkippedBots++
			case SkipLowActivity:
				res.Summary.SkippedLowActivity++
			}
			continue
		}

		if isSaved {
			res.Summary.Saved++
		} else {
			res.Summary.Unsaved++
		}
		res.Contacts = append(res.Contacts, ToContact(h, info, isSaved))
	}

	e.log.Info().
		Int("handles", res.Summary.Handles).
		Int("extracted", res.Summary.Extracted()).
		Int("short_codes", res.Summary.SkippedShortCodes).
		Int("bots", res.Summary.SkippedBots).
		Int("low_activity", res.Summary.SkippedLowActivity).
		Msg("extraction complete")

	return res, nil
}

func (e *Extractor) loadSavedContacts(ctx context.Context) map[string]domain.SavedContactInfo {
	if e.book == nil {
		e.log.Warn().Msg("no address book configured, treating every handle as unsaved")
		return nil
	}
	saved, err := e.book.SavedContacts(ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("address book unavailable, treating every handle as unsaved")
		return nil
	}
	e.log.Debug().Int("identifiers", len(saved)).Msg("loaded saved contacts")
	return saved
}

// lookup tries the normalized key first, then the raw identifier.
func lookup(saved map[string]domain.SavedContactInfo, identifier string) (domain.SavedContactInfo, bool) {
	if saved == nil {
		return domain.SavedContactInfo{}, false
	}
	if info, ok := saved[normalize.Identifier(identifier)]; ok {
		return info, true
	}
	info, ok := saved[identifier]
	return info, ok
}

// Skip reports whether a handle must be excluded and why. Short codes are
// excluded for everyone; the remaining filters apply to unsaved handles only.
func Skip(h domain.Handle, isSaved bool) (SkipReason, bool) {
	if normalize.IsShortCode(h.Identifier) {
		return SkipShortCode, true
	}
	if isSaved {
		return "", false
	}
	if looksLikeBot(h) {
		return SkipBot, true
	}
	if h.TotalMessages < MinTwoWayMessages || h.SentMessages == 0 || h.ReceivedMessages == 0 {
		return SkipLowActivity, true
	}
	return "", false
}

func looksLikeBot(h domain.Handle) bool {
	if h.SentMessages == 0 && h.ReceivedMessages > 0 {
		return true
	}
	total := h.SentMessages + h.ReceivedMessages
	return total > BotRatioMinMessage && float64(h.SentMessages)/float64(total) < BotSentRatio
}

// ToContact maps a surviving handle to its extracted contact.
func ToContact(h domain.Handle, info domain.SavedContactInfo, isSaved bool) domain.ExtractedContact {
	c := domain.ExtractedContact{
		ID:              domain.ContactIDForHandle(h.RowID),
		Identifier:      h.Identifier,
		MessageCount:    h.SentMessages + h.ReceivedMessages,
		SentCount:       h.SentMessages,
		ReceivedCount:   h.ReceivedMessages,
		LastMessageDate: h.LastActivityAt,
		IsSavedContact:  isSaved,
	}
	if isSaved {
		c.DisplayName = DisplayName(info)
	}
	return c
}

// DisplayName joins the non-empty name parts with a space, nil when none.
func DisplayName(info domain.SavedContactInfo) *string {
	var parts []string
	for _, p := range []string{info.FirstName, info.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	name := strings.Join(parts, " ")
	return &name
}
