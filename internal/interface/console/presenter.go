package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/alem-hub/achievement-hub/internal/application/query"
	"github.com/alem-hub/achievement-hub/internal/domain/achievement"
	"github.com/alem-hub/achievement-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRESENTER
// ══════════════════════════════════════════════════════════════════════════════

// Presenter renders session state as plain text.
type Presenter struct {
	out io.Writer
}

// NewPresenter creates a Presenter writing to out.
func NewPresenter(out io.Writer) *Presenter {
	return &Presenter{out: out}
}

// Section prints a titled separator.
func (p *Presenter) Section(title string) {
	fmt.Fprintf(p.out, "\n=== %s ===\n", title)
}

// Line prints one line.
func (p *Presenter) Line(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// User prints a user with points and achievements.
func (p *Presenter) User(u *user.User) {
	names := u.Achievements()
	if len(names) == 0 {
		p.Line("%s no achievements", u)
		return
	}
	p.Line("%s achievements: %s", u, strings.Join(names, ", "))
}

// Catalog prints the registered definitions.
func (p *Presenter) Catalog(summaries []achievement.Summary) {
	for _, s := range summaries {
		switch s.Kind {
		case achievement.KindGroup:
			p.Line("  %-14s group of [%s]", s.Name, strings.Join(s.Children, ", "))
		default:
			p.Line("  %-14s %d points", s.Name, s.PointsRequired)
		}
	}
}

// Leaderboard prints ranked rows and where they came from.
func (p *Presenter) Leaderboard(res *query.GetLeaderboardResult) {
	if len(res.Entries) == 0 {
		p.Line("  (empty)")
		return
	}
	for _, r := range res.Entries {
		p.Line("  #%d %-10s %4d pts  %d achievements", r.Rank, r.Name, r.Points, len(r.Achievements))
	}
	p.Line("  source: %s, average: %d pts", res.Source, res.AveragePoints)
}

// Progress prints what a user still has to unlock.
func (p *Presenter) Progress(res *query.GetUserProgressResult) {
	p.Line("%s has %d points and %d achievements", res.Name, res.Points, len(res.Unlocked))
	for _, l := range res.Locked {
		if l.Kind == achievement.KindGroup {
			p.Line("  %-14s missing [%s]", l.Name, strings.Join(l.MissingChildren, ", "))
			continue
		}
		p.Line("  %-14s %d points to go", l.Name, l.PointsToGo)
	}
	if len(res.Locked) == 0 {
		p.Line("  everything unlocked")
	}
}

// Actions prints the action history, oldest first.
func (p *Presenter) Actions(descriptions []string) {
	for i, d := range descriptions {
		p.Line("  %d. %s", i+1, d)
	}
}
