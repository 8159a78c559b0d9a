package history

import (
	"context"
	"strings"
	"time"

	"blackjack-casino/internal/app/play"
	"blackjack-casino/internal/game"
	"blackjack-casino/internal/store"

	"github.com/shopspring/decimal"
)

// Service is the read side over settled games. It never writes.
type Service struct {
	store      store.Reader
	sessionGap time.Duration
}

func NewService(st store.Reader, sessionGap time.Duration) *Service {
	if sessionGap <= 0 {
		sessionGap = DefaultSessionGap
	}
	return &Service{store: st, sessionGap: sessionGap}
}

func ParseFilter(raw string) (Filter, error) {
	f := Filter(strings.ToLower(strings.TrimSpace(raw)))
	switch f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterWin, FilterLose, FilterPush, FilterBlackjack:
		return f, nil
	default:
		return "", ErrInvalidFilter
	}
}

func (s *Service) Query(ctx context.Context, q Query) (*Response, error) {
	if q.UserID == "" {
		return nil, ErrInvalidRequest
	}
	if q.Result == "" {
		q.Result = FilterAll
	}
	if _, err := ParseFilter(string(q.Result)); err != nil {
		return nil, err
	}
	page, limit := clampPage(q.Page, q.Limit)

	records, err := s.store.ListSettledGames(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	filtered := make([]store.GameRecord, 0, len(records))
	for _, rec := range records {
		if q.Result == FilterAll || rec.Outcome == string(q.Result) {
			filtered = append(filtered, rec)
		}
	}

	total := len(filtered)
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	// page <= totalPages bounds (page-1)*limit by total
	games := []GameSummary{}
	if page <= totalPages {
		start := (page - 1) * limit
		end := min(start+limit, total)
		for i := start; i < end; i++ {
			summary, err := summarize(&filtered[i])
			if err != nil {
				return nil, err
			}
			games = append(games, summary)
		}
	}

	return &Response{
		Games:        games,
		Sessions:     s.sessions(filtered),
		OverallStats: statsOf(filtered),
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}, nil
}

// Stats aggregates every settled game of the user.
func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	records, err := s.store.ListSettledGames(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	return statsOf(records), nil
}

func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

func summarize(rec *store.GameRecord) (GameSummary, error) {
	g, err := play.Decode(rec)
	if err != nil {
		return GameSummary{}, err
	}
	values := make([]int, 0, len(g.Hands))
	for _, h := range g.Hands {
		v, _ := h.Value()
		values = append(values, v)
	}
	dealer, _ := game.Value(g.Dealer.Cards)
	return GameSummary{
		ID:             rec.ID,
		Outcome:        rec.Outcome,
		Wagered:        rec.Wagered,
		Payout:         rec.Paid,
		Net:            rec.Paid.Sub(rec.Wagered),
		HandCount:      len(g.Hands),
		PlayerValues:   values,
		DealerValue:    dealer,
		InsuranceTaken: g.InsuranceTaken,
		CreatedAt:      rec.CreatedAt,
		SettledAt:      rec.SettledAt,
	}, nil
}

type tally struct {
	games, wins, losses, pushes, blackjacks int
	wagered, paid                           decimal.Decimal
}

func (t *tally) add(rec *store.GameRecord) {
	t.games++
	switch game.Outcome(rec.Outcome) {
	case game.OutcomeWin:
		t.wins++
	case game.OutcomeLose:
		t.losses++
	case game.OutcomePush:
		t.pushes++
	case game.OutcomeBlackjack:
		t.blackjacks++
	}
	t.wagered = t.wagered.Add(rec.Wagered)
	t.paid = t.paid.Add(rec.Paid)
}

func statsOf(records []store.GameRecord) Stats {
	var t tally
	for i := range records {
		t.add(&records[i])
	}
	st := Stats{
		TotalGames:   t.games,
		Wins:         t.wins,
		Losses:       t.losses,
		Pushes:       t.pushes,
		Blackjacks:   t.blackjacks,
		TotalWagered: t.wagered,
		TotalPayout:  t.paid,
		NetDelta:     t.paid.Sub(t.wagered),
	}
	if t.games > 0 {
		// blackjacks count as wins
		rate := decimal.NewFromInt(int64(t.wins + t.blackjacks)).
			Div(decimal.NewFromInt(int64(t.games))).
			Round(4)
		st.WinRate = rate.InexactFloat64()
	}
	return st
}

func endOf(rec *store.GameRecord) time.Time {
	if rec.SettledAt != nil {
		return *rec.SettledAt
	}
	return rec.CreatedAt
}

// sessions groups newest-first records into runs whose idle gaps stay within
// the configured gap. Sessions come back newest first, indexed from 1 by age.
func (s *Service) sessions(records []store.GameRecord) []Session {
	out := []Session{}
	var cur *Session
	var t tally
	flush := func() {
		if cur == nil {
			return
		}
		cur.Games = t.games
		cur.Wins = t.wins
		cur.Losses = t.losses
		cur.Pushes = t.pushes
		cur.Blackjacks = t.blackjacks
		cur.Wagered = t.wagered
		cur.Payout = t.paid
		cur.Net = t.paid.Sub(t.wagered)
		out = append(out, *cur)
	}
	for i := range records {
		rec := &records[i]
		if cur != nil && cur.StartedAt.Sub(endOf(rec)) > s.sessionGap {
			flush()
			cur = nil
		}
		if cur == nil {
			cur = &Session{EndedAt: endOf(rec)}
			t = tally{}
		}
		cur.StartedAt = rec.CreatedAt
		t.add(rec)
	}
	flush()
	for i := range out {
		out[i].Index = len(out) - i
	}
	return out
}
