package httpapi_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	historyhandler "famtree/internal/history/handler"
	historymetrics "famtree/internal/history/metrics"
	historymodels "famtree/internal/history/models"
	historyservice "famtree/internal/history/service"
	historystore "famtree/internal/history/store"
	httpapi "famtree/internal/http"
	jwttoken "famtree/internal/jwt_token"
	ownerhandler "famtree/internal/owner/handler"
	ownerservice "famtree/internal/owner/service"
	ownerstore "famtree/internal/owner/store"
	personhandler "famtree/internal/person/handler"
	personmetrics "famtree/internal/person/metrics"
	personservice "famtree/internal/person/service"
	"famtree/internal/platform/ownerlock"
	"famtree/internal/projection"
	id "famtree/pkg/domain"
	"famtree/pkg/testutil"
)

type RouterSuite struct {
	suite.Suite
	router http.Handler
	tokens *jwttoken.JWTService
	alice  id.UserID
	bob    id.UserID
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()

	owners := ownerstore.NewInMemory()
	changes := historystore.NewInMemory()
	hm := historymetrics.New(reg)
	persons := personservice.New(owners,
		personservice.WithLogger(logger),
		personservice.WithMetrics(personmetrics.New(reg)),
		personservice.WithRecorder(historyservice.NewRecorder(changes, hm)),
	)
	history := historyservice.New(changes, persons, historyservice.WithLogger(logger), historyservice.WithMetrics(hm))

	s.tokens = jwttoken.NewJWTService("router-test-key", "famtree")
	s.alice = id.UserID(id.NewPersonID())
	s.bob = id.UserID(id.NewPersonID())
	s.router = httpapi.NewRouter(httpapi.Deps{
		Logger:    logger,
		Validator: jwttoken.NewJWTServiceAdapter(s.tokens),
		Registry:  reg,
		Owners:    ownerhandler.New(ownerservice.New(owners, ownerservice.WithLogger(logger)), ownerlock.NewSharded(time.Second), logger),
		Persons:   personhandler.New(persons, logger),
		History:   historyhandler.New(history, logger),
		Checks:    map[string]httpapi.HealthCheck{},
	})
}

func (s *RouterSuite) do(user id.UserID, method, path string, body any) *httptest.ResponseRecorder {
	req := testutil.NewJSONRequest(s.T(), method, path, body)
	if !user.IsNil() {
		token, err := s.tokens.GenerateAccessToken(user, time.Hour)
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return testutil.DoRequest(s.router, req)
}

func (s *RouterSuite) createPerson(user id.UserID, prefix string, body map[string]any) projection.PersonView {
	rr := s.do(user, http.MethodPost, prefix+"/persons", body)
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	return *testutil.UnmarshalResponse[projection.PersonView](s.T(), rr)
}

func (s *RouterSuite) TestHealthAndMetricsArePublic() {
	s.Equal(http.StatusOK, s.do(id.UserID{}, http.MethodGet, "/healthz", nil).Code)
	s.Equal(http.StatusOK, s.do(id.UserID{}, http.MethodGet, "/metrics", nil).Code)
}

func (s *RouterSuite) TestAuthenticationRequired() {
	rr := s.do(id.UserID{}, http.MethodGet, "/me/persons", nil)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
}

func (s *RouterSuite) TestPersonLifecycleAndUndo() {
	jan := s.createPerson(s.alice, "/me", map[string]any{"gender": "male", "firstName": "Jan"})
	anna := s.createPerson(s.alice, "/me", map[string]any{"gender": "female", "firstName": "Anna"})

	link := map[string]any{"relatedId": anna.ID.String(), "relationType": "spouses", "weddingDate": "1999-09-09"}
	rr := s.do(s.alice, http.MethodPost, "/me/persons/"+jan.ID.String()+"/relations", link)
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	rel := testutil.UnmarshalResponse[personhandler.RelationResponse](s.T(), rr)
	s.Require().Len(rel.Related.Spouses, 1)
	s.Equal("husband", rel.Related.Spouses[0].RelationLabel)

	rr = s.do(s.alice, http.MethodPost, "/me/persons/"+jan.ID.String()+"/relations", link)
	s.Equal(http.StatusOK, rr.Code, "re-adding an existing edge is a no-op")

	rr = s.do(s.alice, http.MethodGet, "/me/history?action=add_relation", nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	entries := *testutil.UnmarshalResponse[[]historymodels.Entry](s.T(), rr)
	s.Require().Len(entries, 1)

	rr = s.do(s.alice, http.MethodGet, "/me/history/"+entries[0].ID.String()+"/undo-preview", nil)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	preview := testutil.UnmarshalResponse[historyhandler.SimulationResponse](s.T(), rr)
	s.Len(preview.Before, 2)

	rr = s.do(s.alice, http.MethodPost, "/me/history/"+entries[0].ID.String()+"/undo", nil)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	rr = s.do(s.alice, http.MethodGet, "/me/persons/"+jan.ID.String(), nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Empty(testutil.UnmarshalResponse[projection.PersonView](s.T(), rr).Spouses)

	rr = s.do(s.alice, http.MethodPatch, "/me/persons/"+jan.ID.String(), map[string]any{"fields": map[string]any{"lastName": "Nowak"}})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	upd := testutil.UnmarshalResponse[personhandler.UpdatePersonResponse](s.T(), rr)
	s.Equal("Nowak", upd.Person.LastName)
	s.Len(upd.Changes, 1)

	rr = s.do(s.alice, http.MethodDelete, "/me/persons/"+anna.ID.String(), nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	rr = s.do(s.alice, http.MethodGet, "/me/persons/"+anna.ID.String(), nil)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "person_not_found")
}

func (s *RouterSuite) TestAddRelativeEndpoint() {
	anna := s.createPerson(s.alice, "/me", map[string]any{"gender": "female", "firstName": "Anna"})

	rr := s.do(s.alice, http.MethodPost, "/me/persons/"+anna.ID.String()+"/relatives", map[string]any{
		"person":       map[string]any{"firstName": "Piotr"},
		"relationType": "son",
	})
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	res := testutil.UnmarshalResponse[personhandler.AddRelativeResponse](s.T(), rr)
	s.Equal("male", string(res.Person.Gender))
	s.Len(res.Placeholders, 1, "a spouseless mother gets a placeholder father")
	s.Len(res.Person.Parents, 2)

	rr = s.do(s.alice, http.MethodPost, "/me/persons/"+anna.ID.String()+"/relatives", map[string]any{
		"person":       map[string]any{"firstName": "X"},
		"relationType": "cousin",
	})
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_relation_type")
}

func (s *RouterSuite) TestRequestValidation() {
	rr := s.do(s.alice, http.MethodPost, "/me/persons", map[string]any{"gender": "male", "nickname": "J"})
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")

	rr = s.do(s.alice, http.MethodPost, "/me/persons", map[string]any{"firstName": "Jan"})
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")

	rr = s.do(s.alice, http.MethodGet, "/me/persons/not-a-uuid", nil)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")

	rr = s.do(s.alice, http.MethodGet, "/me/history?action=rename", nil)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
}

func (s *RouterSuite) TestSharedTreeMembership() {
	rr := s.do(s.alice, http.MethodPost, "/trees", map[string]any{"name": "Kowalscy"})
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	tree := testutil.UnmarshalResponse[ownerhandler.TreeResponse](s.T(), rr)
	prefix := "/trees/" + tree.ID

	s.createPerson(s.alice, prefix, map[string]any{"gender": "male", "firstName": "Jan"})

	rr = s.do(s.bob, http.MethodGet, prefix+"/persons", nil)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "owner_not_found")

	rr = s.do(s.alice, http.MethodPut, prefix+"/members/"+s.bob.String(), map[string]any{"role": "viewer"})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	rr = s.do(s.bob, http.MethodGet, prefix+"/persons", nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Len(*testutil.UnmarshalResponse[[]projection.PersonView](s.T(), rr), 1)

	rr = s.do(s.bob, http.MethodPost, prefix+"/persons", map[string]any{"gender": "female", "firstName": "Ewa"})
	testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")

	rr = s.do(s.bob, http.MethodGet, "/trees", nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Len(*testutil.UnmarshalResponse[[]ownerhandler.TreeResponse](s.T(), rr), 1)

	rr = s.do(s.alice, http.MethodDelete, prefix+"/members/"+s.bob.String(), nil)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	rr = s.do(s.bob, http.MethodGet, prefix, nil)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "owner_not_found")
}
