package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/achievement-hub/internal/domain/achievement"
	"github.com/alem-hub/achievement-hub/internal/domain/shared"
	"github.com/alem-hub/achievement-hub/internal/domain/user"
	"github.com/alem-hub/achievement-hub/internal/infrastructure/ranking"
)

type recordingSender struct {
	entries []ranking.Entry
	err     error
}

func (s *recordingSender) Send(_ context.Context, e ranking.Entry) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, e)
	return nil
}

func newRegistry(t *testing.T) *achievement.Registry {
	t.Helper()
	reg := achievement.NewRegistry(nil, nil)
	math, err := achievement.NewAchievement("math_novice", 50, "")
	require.NoError(t, err)
	logic, err := achievement.NewAchievement("logic_novice", 100, "")
	require.NoError(t, err)
	champ, err := achievement.NewGroup("champion", "", "math_novice", "logic_novice")
	require.NoError(t, err)
	reg.MustRegister(math, logic, champ)
	return reg
}

func TestData_KeepsInsertionOrder(t *testing.T) {
	d := NewData(Field{"b", 1}, Field{"a", 2})
	d.Set("c", 3).Set("b", 10)

	assert.Equal(t, []string{"b", "a", "c"}, d.Keys())
	v, ok := d.Get("b")
	require.True(t, ok)
	assert.Equal(t, 10, v)

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `{"b":10,"a":2,"c":3}`, string(raw))
}

func TestBuildUserReport(t *testing.T) {
	reg := newRegistry(t)
	u, err := user.NewUser(user.RoleStudent, "Maria")
	require.NoError(t, err)
	require.NoError(t, u.AddPoints(60))
	reg.Evaluate(u.State())

	r := BuildUserReport(u, reg)

	assert.Equal(t, []string{"user", "role", "points", "achievements", "achievements_unlocked", "achievements_locked", "catalog_size"}, r.Data.Keys())
	assert.Equal(t, []string{"Maria", "student", "60", "math_novice", "1", "logic_novice; champion", "3"}, r.Data.Strings())
	assert.Equal(t, u.ID, r.Entry.UserID)
	assert.Equal(t, 60, r.Entry.Points)
	assert.Equal(t, 60, u.Points(), "report must not mutate the user")
}

func TestFacade_ExportAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sender := &recordingSender{}
	f := NewFacade(dir, WithSender(sender))

	r := Report{
		Data:  NewData(Field{"user", "Maria"}, Field{"points", 120}),
		Entry: ranking.Entry{UserID: "u1", Name: "Maria", Points: 120},
	}
	res, err := f.ExportAll(context.Background(), r, "relatorio")
	require.NoError(t, err)
	assert.True(t, res.RankingSent)
	require.Len(t, res.Files, 4)
	require.Len(t, sender.entries, 1)
	assert.Equal(t, "u1", sender.entries[0].UserID)

	raw, err := os.ReadFile(filepath.Join(dir, "relatorio.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"user\": \"Maria\",\n    \"points\": 120\n}\n", string(raw))

	file, err := os.Open(filepath.Join(dir, "relatorio.csv"))
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"user", "points"}, {"Maria", "120"}}, rows)

	txt, err := os.ReadFile(filepath.Join(dir, "relatorio.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(txt), "Report\n\n"))
	assert.Contains(t, string(txt), "points: 120\n")

	pdf, err := os.ReadFile(filepath.Join(dir, "relatorio.pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestPDFExporter(t *testing.T) {
	var buf bytes.Buffer
	data := NewData(Field{"user", "João"}, Field{"achievements", []string{"math_novice", "champion"}})

	require.NoError(t, PDFExporter{}.Export(&buf, data))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, buf.String(), "%%EOF")
	assert.Equal(t, "pdf", PDFExporter{}.Extension())
}

func TestFacade_RankingFailureDoesNotFailExport(t *testing.T) {
	sender := &recordingSender{err: shared.ErrRankingUnavailable}
	f := NewFacade(t.TempDir(), WithSender(sender), WithExporters(JSONExporter{}))

	res, err := f.ExportAll(context.Background(), Report{
		Data:  NewData(Field{"user", "João"}),
		Entry: ranking.Entry{UserID: "u2"},
	}, "")
	require.NoError(t, err)
	assert.False(t, res.RankingSent)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "report.json", filepath.Base(res.Files[0]))
}

func TestFacade_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	f := NewFacade(filepath.Join(blocker, "sub"))
	_, err := f.ExportAll(context.Background(), Report{Data: NewData()}, "r")
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrExternalService))
}

func TestExportersFor(t *testing.T) {
	got := ExportersFor([]string{"txt", "docx", "pdf", "json"})
	require.Len(t, got, 3)
	assert.Equal(t, "txt", got[0].Extension())
	assert.Equal(t, "pdf", got[1].Extension())
	assert.Equal(t, "json", got[2].Extension())

	f := NewFacade("", WithExporters(got...))
	assert.Equal(t, []string{"json", "pdf", "txt"}, f.Formats())
	assert.Equal(t, []string{"csv", "json", "pdf", "txt"}, NewFacade("").Formats())
}
