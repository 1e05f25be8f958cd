package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"edustack/lms-backend/internal/domain"
	"edustack/lms-backend/internal/nm"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type nmFixture struct {
	service       NmService
	courses       *stubCourseRepo
	partner       *stubPartner
	launchTokens  *memLaunchTokenRepo
	students      *memStudentRepo
	subscriptions *memSubscriptionRepo
	progress      *memProgressRepo
	courseID      primitive.ObjectID
}

func newNmFixture(t *testing.T) *nmFixture {
	t.Helper()
	courseID := primitive.NewObjectID()

	courses := &stubCourseRepo{byCode: map[string]*domain.Course{
		"go101": {
			ID:          courseID,
			CourseCode:  "GO101",
			Title:       "Go Fundamentals",
			Description: "Learn Go",
			Objectives:  []string{"write idiomatic Go"},
			IsActive:    true,
		},
	}}
	subjects := &stubSubjectRepo{listByCourse: map[primitive.ObjectID][]domain.Subject{
		courseID: {
			{ID: primitive.NewObjectID(), CourseID: courseID, Title: "Basics", Content: "types and funcs", IsActive: true},
			{ID: primitive.NewObjectID(), CourseID: courseID, Title: "Concurrency", IsActive: true},
		},
	}}

	partner := &stubPartner{publishResp: json.RawMessage(`{"id":"nm-77"}`)}
	launchTokens := newMemLaunchTokenRepo()
	students := newMemStudentRepo()
	subscriptions := newMemSubscriptionRepo()
	progress := newMemProgressRepo()

	svc := NewNmService(
		courses, subjects, students, subscriptions, progress, launchTokens,
		partner, &staticTokenSource{token: "partner-token"},
		"test-secret", time.Hour, 10*time.Minute, zap.NewNop(),
	)
	return &nmFixture{
		service:       svc,
		courses:       courses,
		partner:       partner,
		launchTokens:  launchTokens,
		students:      students,
		subscriptions: subscriptions,
		progress:      progress,
		courseID:      courseID,
	}
}

func TestPublishCourseSetsFlagOnSuccess(t *testing.T) {
	f := newNmFixture(t)

	response, err := f.service.PublishCourse(context.Background(), "GO101")
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"nm-77"}`, string(response))

	require.Len(t, f.partner.published, 1)
	payload := f.partner.published[0]
	require.Equal(t, "GO101", payload.CourseCode)
	require.Len(t, payload.Subjects, 2)
	require.Equal(t, "Basics", payload.Subjects[0].Title)
	require.True(t, f.courses.published["go101"])
}

func TestPublishCourseUpstreamFailureLeavesFlagUntouched(t *testing.T) {
	f := newNmFixture(t)
	f.partner.publishErr = &nm.UpstreamError{StatusCode: 422, Body: `{"error":"missing objectives"}`}

	_, err := f.service.PublishCourse(context.Background(), "GO101")
	var upstream *nm.UpstreamError
	require.ErrorAs(t, err, &upstream)
	require.Equal(t, 422, upstream.StatusCode)
	require.False(t, f.courses.published["go101"])
}

func TestPublishCourseUnknownCode(t *testing.T) {
	f := newNmFixture(t)
	_, err := f.service.PublishCourse(context.Background(), "NOPE")
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestSubscribeIsIdempotent(t *testing.T) {
	f := newNmFixture(t)
	req := PartnerRequest{
		NmUserID:    "nm-user-1",
		CourseCode:  "GO101",
		StudentMeta: &StudentMeta{Email: "s@example.com", Name: "Student"},
	}

	require.NoError(t, f.service.Subscribe(context.Background(), req))
	require.NoError(t, f.service.Subscribe(context.Background(), req))

	require.Len(t, f.subscriptions.pairs, 1)
	require.Equal(t, "s@example.com", f.students.students["nm-user-1"].Email)
}

func TestSubscribeWithoutMetaSkipsStudentUpsert(t *testing.T) {
	f := newNmFixture(t)
	require.NoError(t, f.service.Subscribe(context.Background(), PartnerRequest{NmUserID: "nm-user-2", CourseCode: "GO101"}))
	require.Empty(t, f.students.students)
	require.Len(t, f.subscriptions.pairs, 1)
}

func TestAccessMintsSingleUseLaunchToken(t *testing.T) {
	f := newNmFixture(t)
	req := PartnerRequest{NmUserID: "nm-user-1", CourseCode: "GO101"}

	accessURL, err := f.service.Access(context.Background(), req, "https://lms.example.com")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(accessURL, "https://lms.example.com/api/nm/launch?token="), accessURL)
	require.Len(t, f.subscriptions.pairs, 1)

	token := strings.TrimPrefix(accessURL, "https://lms.example.com/api/nm/launch?token=")
	nmUserID, courseCode, err := f.service.RedeemLaunchToken(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "nm-user-1", nmUserID)
	require.Equal(t, "GO101", courseCode)

	_, _, err = f.service.RedeemLaunchToken(context.Background(), token)
	require.ErrorIs(t, err, ErrLaunchTokenUsed)
}

func TestRedeemLaunchTokenExpired(t *testing.T) {
	f := newNmFixture(t)
	token := &domain.NmLaunchToken{
		Token:      "expired-token",
		NmUserID:   "nm-user-1",
		CourseCode: "GO101",
		ExpiresAt:  time.Now().UTC().Add(-time.Minute),
	}
	require.NoError(t, f.launchTokens.Create(context.Background(), token))

	_, _, err := f.service.RedeemLaunchToken(context.Background(), "expired-token")
	require.ErrorIs(t, err, ErrLaunchTokenExpired)
}

func TestRedeemLaunchTokenInvalid(t *testing.T) {
	f := newNmFixture(t)
	_, _, err := f.service.RedeemLaunchToken(context.Background(), "")
	require.ErrorIs(t, err, ErrLaunchTokenInvalid)

	_, _, err = f.service.RedeemLaunchToken(context.Background(), "never-issued")
	require.ErrorIs(t, err, ErrLaunchTokenInvalid)
}

func TestNewSessionTokenRoundTrip(t *testing.T) {
	f := newNmFixture(t)

	signed, err := f.service.NewSessionToken("nm-user-1", "GO101")
	require.NoError(t, err)

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	require.Equal(t, "nm-user-1", claims.NmUserID)
	require.Equal(t, "GO101", claims.CourseCode)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestUpdateProgressStripsEmptyValues(t *testing.T) {
	f := newNmFixture(t)

	err := f.service.UpdateProgress(context.Background(), "nm-user-1", "GO101", map[string]interface{}{
		"completedSessions": float64(3),
		"lastSessionId":     "",
		"score":             nil,
	})
	require.NoError(t, err)

	stored, err := f.service.GetProgress(context.Background(), "nm-user-1", "GO101")
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{"completedSessions": float64(3)}, stored)
}

func TestGetProgressEmptyWhenUnknown(t *testing.T) {
	f := newNmFixture(t)
	progress, err := f.service.GetProgress(context.Background(), "nobody", "GO101")
	require.NoError(t, err)
	require.Empty(t, progress)
}

func TestPushProgressForwardsUpstreamErrors(t *testing.T) {
	f := newNmFixture(t)
	f.partner.pushErr = &nm.UpstreamError{StatusCode: 503, Body: "maintenance"}

	err := f.service.PushProgress(context.Background(), "nm-user-1", "GO101", map[string]interface{}{"done": true})
	var upstream *nm.UpstreamError
	require.ErrorAs(t, err, &upstream)
	require.Equal(t, 503, upstream.StatusCode)
}

func TestPushProgressSendsBearerPayload(t *testing.T) {
	f := newNmFixture(t)

	err := f.service.PushProgress(context.Background(), "nm-user-1", "GO101", map[string]interface{}{"done": true})
	require.NoError(t, err)
	require.Len(t, f.partner.pushed, 1)
	require.Equal(t, "nm-user-1", f.partner.pushed[0].NmUserID)
	require.Equal(t, "GO101", f.partner.pushed[0].CourseCode)
}

func TestPushProgressFailsWithoutToken(t *testing.T) {
	f := newNmFixture(t)
	svc := NewNmService(
		f.courses, &stubSubjectRepo{}, f.students, f.subscriptions, f.progress, f.launchTokens,
		f.partner, &staticTokenSource{err: fmt.Errorf("grant failed")},
		"test-secret", time.Hour, 10*time.Minute, zap.NewNop(),
	)
	err := svc.PushProgress(context.Background(), "nm-user-1", "GO101", map[string]interface{}{"done": true})
	require.Error(t, err)
	require.Empty(t, f.partner.pushed)
}
