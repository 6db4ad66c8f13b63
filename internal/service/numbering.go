package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/coordination-service/internal/repository"
)

const (
	defaultOrderTemplate  = "ORD-{YYYY}{MM}{DD}-{SEQ}"
	defaultTicketTemplate = "{PREFIX}-{SEQ}"
	defaultTicketPrefix   = "T"
)

// TicketNumber is the result of minting a ticket code.
type TicketNumber struct {
	Code   string
	Seq    int64
	DayKey string
}

// Numbering mints human-readable order and ticket codes. Counters are
// scoped per tenant, branch and calendar day, so codes restart at 0001
// every day without ever colliding within a day.
type Numbering struct {
	sequences repository.SequenceRepository
	now       func() time.Time
}

// NewNumbering constructs the service.
func NewNumbering(sequences repository.SequenceRepository) *Numbering {
	return &Numbering{sequences: sequences, now: time.Now}
}

// BuildOrderNumber mints the next order code for the branch.
func (n *Numbering) BuildOrderNumber(ctx context.Context, tenantID, branchID, template string) (string, error) {
	if strings.TrimSpace(template) == "" {
		template = defaultOrderTemplate
	}
	t := n.now().UTC()
	dayKey := t.Format("20060102")
	scope := fmt.Sprintf("order:%s:%s:%s", tenantID, branchID, dayKey)
	seq, err := n.sequences.Next(ctx, scope)
	if err != nil {
		return "", err
	}
	return renderCode(template, t, seq), nil
}

// BuildTicketNumber mints the next ticket code for the queue. The prefix
// comes from the queue definition; templates either carry a {PREFIX}
// placeholder or start with the literal default prefix, which gets swapped.
func (n *Numbering) BuildTicketNumber(ctx context.Context, tenantID, branchID, serviceType, template, prefix string) (TicketNumber, error) {
	if strings.TrimSpace(template) == "" {
		template = defaultTicketTemplate
	}
	if prefix == "" {
		prefix = defaultTicketPrefix
	}
	t := n.now().UTC()
	dayKey := t.Format("20060102")
	scope := fmt.Sprintf("ticket:%s:%s:%s:%s", tenantID, branchID, serviceType, dayKey)
	seq, err := n.sequences.Next(ctx, scope)
	if err != nil {
		return TicketNumber{}, err
	}

	code := template
	if strings.Contains(code, "{PREFIX}") {
		code = strings.ReplaceAll(code, "{PREFIX}", prefix)
	} else if strings.HasPrefix(code, defaultTicketPrefix+"-") {
		code = prefix + strings.TrimPrefix(code, defaultTicketPrefix)
	}
	code = renderCode(code, t, seq)

	return TicketNumber{Code: code, Seq: seq, DayKey: dayKey}, nil
}

func renderCode(template string, t time.Time, seq int64) string {
	replacer := strings.NewReplacer(
		"{YYYY}", t.Format("2006"),
		"{MM}", t.Format("01"),
		"{DD}", t.Format("02"),
		"{SEQ}", fmt.Sprintf("%04d", seq),
	)
	return replacer.Replace(template)
}
