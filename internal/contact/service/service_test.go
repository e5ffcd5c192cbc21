package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"id-recon/internal/contact/metrics"
	"id-recon/internal/contact/models"
	"id-recon/internal/contact/ports"
	"id-recon/internal/contact/service/mocks"
	contactstore "id-recon/internal/contact/store"
	"id-recon/internal/outbox"
	dErrors "id-recon/pkg/domain-errors"
	"id-recon/pkg/platform/sentinel"
)

type IdentifyServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *contactstore.InMemoryStore
	events  *outbox.InMemoryStore
	metrics *metrics.Metrics
	service *Service
}

func TestIdentifyServiceSuite(t *testing.T) {
	suite.Run(t, new(IdentifyServiceSuite))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *IdentifyServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = contactstore.NewInMemoryStore()
	s.events = outbox.NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())

	var err error
	s.service, err = New(contactstore.NewInMemoryTx(s.store),
		WithLogger(discardLogger()),
		WithMetrics(s.metrics),
		WithEvents(s.events),
	)
	s.Require().NoError(err)
}

func (s *IdentifyServiceSuite) identify(email, phone string) *models.Consolidated {
	s.T().Helper()
	view, err := s.service.Identify(s.ctx, models.IdentifyRequest{Email: email, PhoneNumber: phone})
	s.Require().NoError(err)
	return view
}

func (s *IdentifyServiceSuite) contacts() []*models.Contact {
	s.T().Helper()
	all, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	return all
}

func (s *IdentifyServiceSuite) eventTypes() []outbox.EventType {
	var types []outbox.EventType
	for _, e := range s.events.Entries() {
		types = append(types, e.EventType)
	}
	return types
}

func (s *IdentifyServiceSuite) TestNew() {
	s.Run("nil transaction runner returns error", func() {
		_, err := New(nil)
		s.Error(err)
		s.Contains(err.Error(), "transaction runner is required")
	})
}

func (s *IdentifyServiceSuite) TestRejectsEmptyObservation() {
	_, err := s.service.Identify(s.ctx, models.IdentifyRequest{})

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Empty(s.contacts(), "store untouched")
}

func (s *IdentifyServiceSuite) TestNewIdentity() {
	view := s.identify("lorraine@hillvalley.edu", "123456")

	s.Equal(int64(1), view.PrimaryContactID)
	s.Equal([]string{"lorraine@hillvalley.edu"}, view.Emails)
	s.Equal([]string{"123456"}, view.PhoneNumbers)
	s.Empty(view.SecondaryContactIDs)
	s.Equal([]outbox.EventType{outbox.TypeCreated}, s.eventTypes())
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.IdentifyOutcomes.WithLabelValues("created")))
}

func (s *IdentifyServiceSuite) TestIdempotent() {
	first := s.identify("lorraine@hillvalley.edu", "123456")
	second := s.identify("lorraine@hillvalley.edu", "123456")

	s.Equal(first, second)
	s.Len(s.contacts(), 1)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.IdentifyOutcomes.WithLabelValues("matched")))
}

func (s *IdentifyServiceSuite) TestLinksSecondary() {
	s.identify("lorraine@hillvalley.edu", "123456")
	view := s.identify("mcfly@hillvalley.edu", "123456")

	s.Equal(int64(1), view.PrimaryContactID)
	s.Equal([]string{"lorraine@hillvalley.edu", "mcfly@hillvalley.edu"}, view.Emails)
	s.Equal([]string{"123456"}, view.PhoneNumbers)
	s.Equal([]int64{2}, view.SecondaryContactIDs)
	s.Equal([]outbox.EventType{outbox.TypeCreated, outbox.TypeLinked}, s.eventTypes())
}

func (s *IdentifyServiceSuite) TestPartialObservationsMatchWithoutInsert() {
	s.identify("lorraine@hillvalley.edu", "123456")
	s.identify("mcfly@hillvalley.edu", "123456")

	for _, req := range []models.IdentifyRequest{
		{PhoneNumber: "123456"},
		{Email: "lorraine@hillvalley.edu"},
		{Email: "mcfly@hillvalley.edu"},
		{Email: "mcfly@hillvalley.edu", PhoneNumber: "123456"},
	} {
		view, err := s.service.Identify(s.ctx, req)
		s.Require().NoError(err)
		s.Equal(int64(1), view.PrimaryContactID)
		s.Equal([]string{"lorraine@hillvalley.edu", "mcfly@hillvalley.edu"}, view.Emails)
		s.Equal([]int64{2}, view.SecondaryContactIDs)
	}
	s.Len(s.contacts(), 2)
}

func (s *IdentifyServiceSuite) TestMergesTwoIdentities() {
	s.identify("george@hillvalley.edu", "919191")
	s.identify("biffsucks@hillvalley.edu", "717171")

	view := s.identify("george@hillvalley.edu", "717171")

	s.Equal(int64(1), view.PrimaryContactID)
	s.Equal([]string{"george@hillvalley.edu", "biffsucks@hillvalley.edu"}, view.Emails)
	s.Equal([]string{"919191", "717171"}, view.PhoneNumbers)
	s.Equal([]int64{2, 3}, view.SecondaryContactIDs)
	s.Empty(models.VerifyLinkage(s.contacts()))
	s.Equal([]outbox.EventType{outbox.TypeCreated, outbox.TypeCreated, outbox.TypeMerged, outbox.TypeLinked}, s.eventTypes())
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Demotions))
}

func (s *IdentifyServiceSuite) TestMergeCarriesDependentsOfDemotedPrimary() {
	s.identify("a@x.com", "111")
	s.identify("b@y.com", "222")
	s.identify("c@z.com", "222") // secondary of 2

	view := s.identify("a@x.com", "222")

	s.Equal(int64(1), view.PrimaryContactID)
	s.Equal([]string{"a@x.com", "b@y.com", "c@z.com"}, view.Emails)
	s.Equal([]int64{2, 3, 4}, view.SecondaryContactIDs)
	for _, c := range s.contacts() {
		if c.ID == 1 {
			continue
		}
		s.Require().NotNil(c.LinkedID, "contact %d", c.ID)
		s.Equal(int64(1), *c.LinkedID, "contact %d", c.ID)
	}
	s.Empty(models.VerifyLinkage(s.contacts()))
}

func (s *IdentifyServiceSuite) TestMergedEventsCountPerDemotedPrimary() {
	// two primaries already share an email, a third is reached by phone
	_, err := s.store.Insert(s.ctx, "a@x.com", "111", models.PrecedencePrimary, nil)
	s.Require().NoError(err)
	p2, err := s.store.Insert(s.ctx, "a@x.com", "222", models.PrecedencePrimary, nil)
	s.Require().NoError(err)
	_, err = s.store.Insert(s.ctx, "z@x.com", "999", models.PrecedenceSecondary, &p2.ID)
	s.Require().NoError(err)
	p4, err := s.store.Insert(s.ctx, "q@x.com", "333", models.PrecedencePrimary, nil)
	s.Require().NoError(err)

	s.identify("a@x.com", "333")

	repointed := make(map[int64]int)
	for _, e := range s.events.Entries() {
		if e.EventType != outbox.TypeMerged {
			continue
		}
		var body struct {
			ContactID int64 `json:"contactId"`
			Repointed int   `json:"repointed"`
		}
		s.Require().NoError(json.Unmarshal(e.Payload, &body))
		repointed[body.ContactID] = body.Repointed
	}
	s.Equal(map[int64]int{p2.ID: 2, p4.ID: 1}, repointed)
	s.Empty(models.VerifyLinkage(s.contacts()))
}

func (s *IdentifyServiceSuite) TestRepairsNewerPrimaryOverOlderSecondary() {
	orphanTarget := int64(2)
	_, err := s.store.Insert(s.ctx, "a@x.com", "", models.PrecedenceSecondary, &orphanTarget)
	s.Require().NoError(err)
	_, err = s.store.Insert(s.ctx, "a@x.com", "111", models.PrecedencePrimary, nil)
	s.Require().NoError(err)

	view := s.identify("a@x.com", "")

	s.Equal(int64(1), view.PrimaryContactID)
	s.Equal([]int64{2}, view.SecondaryContactIDs)
	s.Empty(models.VerifyLinkage(s.contacts()))
}

func (s *IdentifyServiceSuite) TestVerify() {
	s.identify("a@x.com", "111")
	s.identify("b@y.com", "111")

	violations, err := s.service.Verify(s.ctx)
	s.Require().NoError(err)
	s.Empty(violations)
}

func (s *IdentifyServiceSuite) TestRandomSequencesPreserveInvariants() {
	rng := rand.New(rand.NewSource(42))
	emails := []string{"", "a@x.com", "b@x.com", "c@x.com", "d@x.com", "e@x.com"}
	phones := []string{"", "100", "200", "300", "400", "500"}

	for round := 0; round < 5; round++ {
		s.SetupTest()
		for i := 0; i < 60; i++ {
			req := models.IdentifyRequest{
				Email:       emails[rng.Intn(len(emails))],
				PhoneNumber: phones[rng.Intn(len(phones))],
			}
			if req.Email == "" && req.PhoneNumber == "" {
				continue
			}
			view, err := s.service.Identify(s.ctx, req)
			s.Require().NoError(err)

			all := s.contacts()
			s.Require().Empty(models.VerifyLinkage(all), "round %d step %d request %+v", round, i, req)
			if req.Email != "" {
				s.Contains(view.Emails, req.Email)
			}
			if req.PhoneNumber != "" {
				s.Contains(view.PhoneNumbers, req.PhoneNumber)
			}

			again, err := s.service.Identify(s.ctx, req)
			s.Require().NoError(err)
			s.Equal(view, again, "identify is idempotent")
			s.Len(s.contacts(), len(all))
		}
	}
}

func (s *IdentifyServiceSuite) TestConcurrentFirstSightingCreatesOnePrimary() {
	const workers = 16
	results := make([]*models.Consolidated, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.service.Identify(s.ctx, models.IdentifyRequest{Email: "race@x.com", PhoneNumber: "999"})
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		s.Require().NoError(errs[i])
		s.Equal(results[0], results[i])
	}
	s.Len(s.contacts(), 1)
}

func TestReconcileRequeriesDependentsOfDemotedPrimaries(t *testing.T) {
	ctx := context.Background()
	store := contactstore.NewInMemoryStore()
	p1, _ := store.Insert(ctx, "a@x.com", "111", models.PrecedencePrimary, nil)
	p2, _ := store.Insert(ctx, "b@y.com", "222", models.PrecedencePrimary, nil)
	unseen, _ := store.Insert(ctx, "c@z.com", "333", models.PrecedenceSecondary, &p2.ID)

	// closure deliberately misses the dependent of p2
	res, err := reconcile(ctx, store, []*models.Contact{p1, p2})
	if err != nil {
		t.Fatal(err)
	}

	all, _ := store.ListAll(ctx)
	if v := models.VerifyLinkage(all); len(v) != 0 {
		t.Fatalf("violations: %v", v)
	}
	if res.repointed[p2.ID] != 2 {
		t.Fatalf("repointed under %d = %d, want 2", p2.ID, res.repointed[p2.ID])
	}
	got, _ := store.FindByIDs(ctx, []int64{unseen.ID})
	if got[0].LinkedID == nil || *got[0].LinkedID != p1.ID {
		t.Fatalf("dependent %d not repointed to %d", unseen.ID, p1.ID)
	}
}

func TestResolveClosureLoadsMissingPrimariesInOneBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockContactStore(ctrl)
	ctx := context.Background()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p1ID, p2ID := int64(1), int64(2)
	p1 := &models.Contact{ID: p1ID, Email: "a@x.com", LinkPrecedence: models.PrecedencePrimary, CreatedAt: t0}
	p2 := &models.Contact{ID: p2ID, Email: "b@y.com", LinkPrecedence: models.PrecedencePrimary, CreatedAt: t0.Add(time.Minute)}
	s3 := &models.Contact{ID: 3, PhoneNumber: "111", LinkPrecedence: models.PrecedenceSecondary, LinkedID: &p2ID, CreatedAt: t0.Add(2 * time.Minute)}
	s4 := &models.Contact{ID: 4, PhoneNumber: "111", LinkPrecedence: models.PrecedenceSecondary, LinkedID: &p1ID, CreatedAt: t0.Add(3 * time.Minute)}

	store.EXPECT().FindByEmailOrPhone(ctx, "", "111").Return([]*models.Contact{s3, s4}, nil)
	store.EXPECT().FindByLinkedID(ctx, int64(3)).Return([]*models.Contact{}, nil)
	store.EXPECT().FindByLinkedID(ctx, int64(4)).Return([]*models.Contact{}, nil)
	store.EXPECT().FindByIDs(ctx, []int64{1, 2}).Return([]*models.Contact{p1, p2}, nil).Times(1)
	store.EXPECT().FindByLinkedID(ctx, int64(1)).Return([]*models.Contact{s4}, nil)
	store.EXPECT().FindByLinkedID(ctx, int64(2)).Return([]*models.Contact{s3}, nil)

	closure, err := resolveClosure(ctx, store, "", "111")
	if err != nil {
		t.Fatal(err)
	}
	var ids []int64
	for _, c := range closure {
		ids = append(ids, c.ID)
	}
	if fmt.Sprint(ids) != "[1 2 3 4]" {
		t.Fatalf("closure = %v, want [1 2 3 4]", ids)
	}
}

// =============================================================================
// Retry and error translation
// =============================================================================

type RetrySuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	tx      *mocks.MockContactStoreTx
	metrics *metrics.Metrics
	service *Service
}

func TestRetrySuite(t *testing.T) {
	suite.Run(t, new(RetrySuite))
}

func (s *RetrySuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.tx = mocks.NewMockContactStoreTx(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())

	var err error
	s.service, err = New(s.tx,
		WithLogger(discardLogger()),
		WithMetrics(s.metrics),
		WithMaxAttempts(3),
		WithBackoff(time.Millisecond, 2*time.Millisecond),
	)
	s.Require().NoError(err)
}

func (s *RetrySuite) TearDownTest() {
	s.ctrl.Finish()
}

func conflict() error {
	return fmt.Errorf("commit transaction: %w", sentinel.ErrConflict)
}

func (s *RetrySuite) TestRetriesConflictsThenSucceeds() {
	store := contactstore.NewInMemoryStore()
	gomock.InOrder(
		s.tx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).Return(conflict()),
		s.tx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).Return(conflict()),
		s.tx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, fn func(context.Context, ports.ContactStore) error) error {
				return fn(ctx, store)
			}),
	)

	view, err := s.service.Identify(context.Background(), models.IdentifyRequest{Email: "a@x.com"})

	s.Require().NoError(err)
	s.Equal(int64(1), view.PrimaryContactID)
	s.Equal(float64(2), testutil.ToFloat64(s.metrics.ConflictRetries))
}

func (s *RetrySuite) TestExhaustedRetriesAreRetryable() {
	s.tx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).Return(conflict()).Times(3)

	_, err := s.service.Identify(context.Background(), models.IdentifyRequest{Email: "a@x.com"})

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.True(errors.Is(err, sentinel.ErrConflict))
}

func (s *RetrySuite) TestStoreFailureIsNotRetried() {
	store := mocks.NewMockContactStore(s.ctrl)
	store.EXPECT().FindByEmailOrPhone(gomock.Any(), "a@x.com", "").
		Return(nil, fmt.Errorf("query: %w", sentinel.ErrUnavailable))
	s.tx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context, ports.ContactStore) error) error {
			return fn(ctx, store)
		}).Times(1)

	_, err := s.service.Identify(context.Background(), models.IdentifyRequest{Email: "a@x.com"})

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Zero(testutil.ToFloat64(s.metrics.ConflictRetries))
}

func (s *RetrySuite) TestEventSinkFailureRollsBack() {
	store := contactstore.NewInMemoryStore()
	sink := mocks.NewMockEventSink(s.ctrl)
	sink.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("outbox full"))

	svc, err := New(contactstore.NewInMemoryTx(store), WithLogger(discardLogger()), WithEvents(sink))
	s.Require().NoError(err)

	_, err = svc.Identify(context.Background(), models.IdentifyRequest{Email: "a@x.com"})

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	all, listErr := store.ListAll(context.Background())
	s.Require().NoError(listErr)
	s.Empty(all)
}

func (s *RetrySuite) TestCancelledContextIsTimeout() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.tx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).Return(
		dErrors.Wrap(context.Canceled, dErrors.CodeTimeout, "transaction aborted: context cancelled"))

	_, err := s.service.Identify(ctx, models.IdentifyRequest{Email: "a@x.com"})

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}
