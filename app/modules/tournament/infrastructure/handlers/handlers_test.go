package tournamenthandlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/time/rate"

	tournamentservice "github.com/abacus-tab/abacus/app/modules/tournament/application"
	tabtypes "github.com/abacus-tab/abacus/app/modules/tournament/domain/types"
	tournamentqueue "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/queue"
	tournamentdb "github.com/abacus-tab/abacus/app/modules/tournament/infrastructure/repositories"
	"github.com/abacus-tab/abacus/pkg/apperr"
	"github.com/abacus-tab/abacus/pkg/jwt"
)

const testSecret = "handler-test-secret"

type testServer struct {
	router  chi.Router
	service *FakeService
	queue   *FakeQueue
	tokens  jwt.Service
}

func newTestServer(t *testing.T, withQueue bool, limiter *IPRateLimiter) *testServer {
	t.Helper()
	svc := &FakeService{
		GetRoundFunc: func(_ context.Context, id string) (*tournamentdb.Round, error) {
			return &tournamentdb.Round{ID: id, TournamentID: "t1"}, nil
		},
		GetDrawFunc: func(_ context.Context, id string) (*tabtypes.DrawRepr, error) {
			return &tabtypes.DrawRepr{RoundID: id}, nil
		},
		DebateTournamentFunc: func(context.Context, string) (string, error) { return "t1", nil },
	}
	ts := &testServer{router: chi.NewRouter(), service: svc, tokens: jwt.NewService(testSecret, time.Hour)}
	var q DrawQueue
	if withQueue {
		ts.queue = &FakeQueue{}
		q = ts.queue
	}
	h := NewTournamentHandlers(svc, q, slog.New(slog.NewTextHandler(io.Discard, nil)), noop.NewTracerProvider().Tracer("test"))
	h.Mount(ts.router, ts.tokens, limiter)
	return ts
}

func (ts *testServer) token(t *testing.T, tournamentID string, role jwt.Role) string {
	t.Helper()
	tok, err := ts.tokens.GenerateToken("user-1", tournamentID, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func (ts *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

func TestMount_Authorization(t *testing.T) {
	tests := []struct {
		name       string
		tournament string
		role       jwt.Role
		rawToken   string
		method     string
		path       string
		wantStatus int
	}{
		{name: "missing token", method: http.MethodGet, path: "/api/tournaments/t1/standings", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", rawToken: "not-a-jwt", method: http.MethodGet, path: "/api/tournaments/t1/standings", wantStatus: http.StatusUnauthorized},
		{name: "viewer reads standings", tournament: "t1", role: jwt.RoleViewer, method: http.MethodGet, path: "/api/tournaments/t1/standings", wantStatus: http.StatusOK},
		{name: "viewer reads draw", tournament: "t1", role: jwt.RoleViewer, method: http.MethodGet, path: "/api/tournaments/t1/rounds/r1/draw", wantStatus: http.StatusOK},
		{name: "viewer cannot generate", tournament: "t1", role: jwt.RoleViewer, method: http.MethodPost, path: "/api/tournaments/t1/rounds/r1/draw", wantStatus: http.StatusForbidden},
		{name: "director of another tournament", tournament: "t2", role: jwt.RoleTabDirector, method: http.MethodPost, path: "/api/tournaments/t1/rounds/r1/start", wantStatus: http.StatusForbidden},
		{name: "director starts round", tournament: "t1", role: jwt.RoleTabDirector, method: http.MethodPost, path: "/api/tournaments/t1/rounds/r1/start", wantStatus: http.StatusNoContent},
		{name: "superuser acts anywhere", tournament: "other", role: jwt.RoleSuperuser, method: http.MethodPost, path: "/api/tournaments/t1/rounds/r1/start", wantStatus: http.StatusNoContent},
		{name: "director cannot create tournaments", tournament: "t1", role: jwt.RoleTabDirector, method: http.MethodPost, path: "/api/tournaments", wantStatus: http.StatusForbidden},
		{name: "director cannot export", tournament: "t1", role: jwt.RoleTabDirector, method: http.MethodGet, path: "/api/tournaments/t1/tab.xlsx", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, false, nil)
			tok := tt.rawToken
			if tt.role != "" {
				tok = ts.token(t, tt.tournament, tt.role)
			}
			rr := ts.do(tt.method, tt.path, tok, "")
			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
		})
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.KindInvalidInput, http.StatusBadRequest},
		{apperr.KindNotFound, http.StatusNotFound},
		{apperr.KindUnauthorized, http.StatusForbidden},
		{apperr.KindInvalidState, http.StatusConflict},
		{apperr.KindAlreadyInProgress, http.StatusConflict},
		{apperr.KindTicketExpired, http.StatusConflict},
		{apperr.KindInvalidTeamCount, http.StatusUnprocessableEntity},
		{apperr.KindInvalidConfiguration, http.StatusUnprocessableEntity},
		{apperr.KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusOf(tt.kind))
		})
	}
}

func TestGenerateDraw(t *testing.T) {
	ts := newTestServer(t, false, nil)
	var got tournamentservice.GenerateDrawRequest
	ts.service.GenerateDrawFunc = func(_ context.Context, req tournamentservice.GenerateDrawRequest) (*tabtypes.DrawRepr, error) {
		got = req
		return &tabtypes.DrawRepr{RoundID: req.RoundID, Status: tabtypes.DrawStatusDrafted}, nil
	}

	rr := ts.do(http.MethodPost, "/api/tournaments/t1/rounds/r1/draw", ts.token(t, "t1", jwt.RoleTabDirector), `{"algorithm":"random","force":true,"seed":9}`)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NotNil(t, got.Seed)
	assert.Equal(t, uint64(9), *got.Seed)
	assert.Equal(t, "r1", got.RoundID)
	assert.Equal(t, "random", got.Algorithm)
	assert.True(t, got.Force)
	assert.Equal(t, []string{"GetRound", "GenerateDraw"}, ts.service.Trace())

	var repr tabtypes.DrawRepr
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&repr))
	assert.Equal(t, tabtypes.DrawStatusDrafted, repr.Status)
}

func TestGenerateDraw_DomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{name: "in progress", err: apperr.AlreadyInProgress("round r1 is generating"), wantStatus: http.StatusConflict, wantKind: apperr.KindAlreadyInProgress.String()},
		{name: "odd teams", err: apperr.InvalidTeamCount("5 teams"), wantStatus: http.StatusUnprocessableEntity, wantKind: apperr.KindInvalidTeamCount.String()},
		{name: "internal details withheld", err: errors.New("pq: connection refused"), wantStatus: http.StatusInternalServerError, wantKind: apperr.KindInternal.String()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, false, nil)
			ts.service.GenerateDrawFunc = func(context.Context, tournamentservice.GenerateDrawRequest) (*tabtypes.DrawRepr, error) {
				return nil, tt.err
			}
			rr := ts.do(http.MethodPost, "/api/tournaments/t1/rounds/r1/draw", ts.token(t, "t1", jwt.RoleTabDirector), "")
			assert.Equal(t, tt.wantStatus, rr.Code)
			body := decodeBody(t, rr)
			assert.Equal(t, tt.wantKind, body.Kind)
			assert.NotContains(t, body.Error, "pq:")
		})
	}
}

func TestGenerateDraw_Async(t *testing.T) {
	ts := newTestServer(t, true, nil)
	var got tournamentqueue.GenerateDrawJob
	ts.queue.EnqueueDrawFunc = func(_ context.Context, job tournamentqueue.GenerateDrawJob) (int64, error) {
		got = job
		return 77, nil
	}

	rr := ts.do(http.MethodPost, "/api/tournaments/t1/rounds/r1/draw?async=true", ts.token(t, "t1", jwt.RoleTabDirector), `{"force":true}`)

	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
	assert.Equal(t, tournamentqueue.GenerateDrawJob{TournamentID: "t1", RoundID: "r1", Force: true}, got)
	assert.NotContains(t, ts.service.Trace(), "GenerateDraw")
}

func TestGenerateDraw_AsyncWithoutQueue(t *testing.T) {
	ts := newTestServer(t, false, nil)
	rr := ts.do(http.MethodPost, "/api/tournaments/t1/rounds/r1/draw?async=1", ts.token(t, "t1", jwt.RoleTabDirector), "")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestRoundOfAnotherTournamentIsNotFound(t *testing.T) {
	ts := newTestServer(t, false, nil)
	ts.service.GetRoundFunc = func(_ context.Context, id string) (*tournamentdb.Round, error) {
		return &tournamentdb.Round{ID: id, TournamentID: "t2"}, nil
	}

	rr := ts.do(http.MethodPost, "/api/tournaments/t1/rounds/r1/draw/release", ts.token(t, "t1", jwt.RoleTabDirector), "")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, []string{"GetRound"}, ts.service.Trace())
}

func TestSubmitBallot(t *testing.T) {
	ts := newTestServer(t, false, nil)
	var got tournamentservice.SubmitBallotRequest
	ts.service.SubmitBallotFunc = func(_ context.Context, req tournamentservice.SubmitBallotRequest) (*tournamentdb.Ballot, error) {
		got = req
		return &tournamentdb.Ballot{ID: "b1", DebateID: req.DebateID}, nil
	}

	body := `{"judge_id":"j1","teams":[{"team_id":"a"},{"team_id":"b"}],"scores":[{"speaker_id":"s1","team_id":"a","position":0,"score":"75.5"}]}`
	rr := ts.do(http.MethodPost, "/api/tournaments/t1/debates/d1/ballots", ts.token(t, "t1", jwt.RoleTabDirector), body)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "d1", got.DebateID)
	assert.Equal(t, "j1", got.JudgeID)
	require.Len(t, got.Scores, 1)
	assert.Equal(t, "75.5", got.Scores[0].Score.String())
}

func TestSubmitBallot_DebateOutOfScope(t *testing.T) {
	ts := newTestServer(t, false, nil)
	ts.service.DebateTournamentFunc = func(context.Context, string) (string, error) { return "t9", nil }

	rr := ts.do(http.MethodPost, "/api/tournaments/t1/debates/d1/ballots", ts.token(t, "t1", jwt.RoleTabDirector), `{}`)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.NotContains(t, ts.service.Trace(), "SubmitBallot")
}

func TestCreateRound_StampsTournamentFromRoute(t *testing.T) {
	ts := newTestServer(t, false, nil)
	var got tournamentservice.CreateRoundRequest
	ts.service.CreateRoundFunc = func(_ context.Context, req tournamentservice.CreateRoundRequest) (*tournamentdb.Round, error) {
		got = req
		return &tournamentdb.Round{ID: "r9", TournamentID: req.TournamentID}, nil
	}

	rr := ts.do(http.MethodPost, "/api/tournaments/t1/rounds", ts.token(t, "t1", jwt.RoleTabDirector), `{"tournament_id":"t2","seq":1,"kind":"P","name":"Round 1"}`)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "t1", got.TournamentID)
	assert.Equal(t, 1, got.Seq)
}

func TestMalformedBody(t *testing.T) {
	ts := newTestServer(t, false, nil)
	rr := ts.do(http.MethodPost, "/api/tournaments/t1/rooms/move", ts.token(t, "t1", jwt.RoleTabDirector), `{"room_id":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "body", decodeBody(t, rr).Field)
}

func TestMoveRoom_ChecksEveryRound(t *testing.T) {
	ts := newTestServer(t, false, nil)
	ts.service.GetRoundFunc = func(_ context.Context, id string) (*tournamentdb.Round, error) {
		tid := "t1"
		if id == "foreign" {
			tid = "t2"
		}
		return &tournamentdb.Round{ID: id, TournamentID: tid}, nil
	}

	rr := ts.do(http.MethodPost, "/api/tournaments/t1/rooms/move", ts.token(t, "t1", jwt.RoleTabDirector), `{"room_id":"m1","round_ids":["r1","foreign"]}`)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.NotContains(t, ts.service.Trace(), "MoveRoom")
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, false, NewIPRateLimiter(rate.Every(time.Hour), 1))
	tok := ts.token(t, "t1", jwt.RoleViewer)

	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/tournaments/t1/standings", tok, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, ts.do(http.MethodGet, "/api/tournaments/t1/standings", tok, "").Code)
}

func TestIPRateLimiter_PrunesIdleEntries(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1)
	now := time.Date(2026, 10, 3, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	for i := 0; i <= cleanupThreshold; i++ {
		l.GetLimiter("10.0.0." + string(rune('a'+i%26)) + string(rune('a'+i/26)))
	}
	now = now.Add(maxIdleAge + time.Minute)
	l.GetLimiter("192.0.2.1")
	assert.Len(t, l.ips, 1)
}
