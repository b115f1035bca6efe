package report

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/evaluation"
	"github.com/trezcool/evalboard/core/group"
	"github.com/trezcool/evalboard/core/ranking"
	"github.com/trezcool/evalboard/core/state"
	"github.com/trezcool/evalboard/core/student"
)

func snapshot() state.Snapshot {
	return state.Snapshot{
		Students: []student.Student{
			{ID: "s1", Name: "Rahim", Roll: "101", GroupID: "g1"},
			{ID: "s2", Name: "Nadia", Roll: "102", GroupID: "g1"},
		},
		Groups: []group.Group{{ID: "g1", Name: "Alpha"}},
		Evaluations: []evaluation.Evaluation{
			{ID: "e1", TaskID: "t1", GroupID: "g1", MaxPossibleScore: 20, Scores: map[string]evaluation.Score{
				"s1": {TotalScore: 18},
				"s2": {TotalScore: 10},
			}},
		},
	}
}

func TestNewRankingReport(t *testing.T) {
	now := time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)
	nowFunc = func() time.Time { return now }
	defer func() { nowFunc = time.Now }()

	opts := Options{
		AppName:    "EvalBoard",
		Recipients: []string{"Teacher <teacher@example.com>", " ", "head@example.com"},
		Ranking:    ranking.DefaultOptions(),
	}
	msg, err := NewRankingReport(snapshot(), opts)
	require.NoError(t, err)

	require.Len(t, msg.To, 2)
	assert.Equal(t, "teacher@example.com", msg.To[0].Address)
	assert.Equal(t, "Ranking report 10 Mar 2024", msg.Subject)

	data, ok := msg.TemplateData.(Data)
	require.True(t, ok)
	assert.Equal(t, 2, data.StudentCount)
	assert.Equal(t, 1, data.GroupCount)
	assert.InDelta(t, 70.0, data.AverageEfficiency, 1e-9)
	require.Len(t, data.TopStudents, 2)
	assert.Equal(t, "s1", data.TopStudents[0].Student.ID)

	require.NoError(t, msg.Render())
	assert.Contains(t, msg.TextContent, "#1 Rahim (101) - 90.00%")
	assert.Contains(t, msg.TextContent, "#1 Alpha")
	assert.Contains(t, msg.HTMLContent, "<td>Rahim</td>")

	require.Len(t, msg.Attachments, 1)
	at := msg.Attachments[0]
	assert.Equal(t, "student-ranking-20240310-093000.csv", at.Filename)
	raw, err := base64.StdEncoding.DecodeString(at.Content.String())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("\ufeff")))
	assert.Contains(t, string(raw), "Rahim")
}

func TestNewRankingReport_Recipients(t *testing.T) {
	tests := []struct {
		name       string
		recipients []string
		wantErr    bool
	}{
		{name: "none", recipients: nil, wantErr: true},
		{name: "blank", recipients: []string{"  "}, wantErr: true},
		{name: "invalid", recipients: []string{"not an address"}, wantErr: true},
		{name: "valid", recipients: []string{"a@example.com"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRankingReport(state.Snapshot{}, Options{Recipients: tc.recipients})
			if (err != nil) != tc.wantErr {
				t.Errorf("NewRankingReport() error = %v; wantErr %v", err, tc.wantErr)
			}
		})
	}
}

type stubStore struct{ snap state.Snapshot }

func (s stubStore) Refresh(context.Context) (state.Snapshot, error) { return s.snap, nil }

type recordingMailer struct{ sent []*core.EmailMessage }

func (m *recordingMailer) Send(msg *core.EmailMessage) error {
	if err := msg.Render(); err != nil {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		_ = m.Send(msg)
	}
}

func TestSender_Send(t *testing.T) {
	mailer := &recordingMailer{}
	sender := NewSender(stubStore{snapshot()}, mailer, Options{AppName: "EvalBoard", Recipients: []string{"a@example.com"}}, nil)

	require.NoError(t, sender.Send(context.Background()))
	require.Len(t, mailer.sent, 1)
	assert.True(t, strings.HasSuffix(mailer.sent[0].TextContent, "EvalBoard\n"))
}
