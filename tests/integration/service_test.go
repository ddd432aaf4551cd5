package integration

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/platewise/recipe-service/internal/testutil"
	"github.com/platewise/recipe-service/pkg/cache"
	"github.com/platewise/recipe-service/pkg/likes"
	"github.com/platewise/recipe-service/pkg/provider"
	"github.com/platewise/recipe-service/pkg/ratelimit"
	"github.com/platewise/recipe-service/pkg/recipes"
	"github.com/platewise/recipe-service/pkg/storage"
	"github.com/platewise/recipe-service/pkg/userdata"
)

type stack struct {
	db      *storage.DB
	client  *provider.Client
	service *recipes.Service
	mock    *testutil.MockProvider
}

// newStack wires the full service against a mock provider and a sqlite
// database at dbPath. Calling it twice with the same path simulates a
// process restart: fresh memory tier, shared persistent tier.
func newStack(t *testing.T, mock *testutil.MockProvider, dbPath string, governorMax int) *stack {
	t.Helper()

	logger := zerolog.New(io.Discard)

	db, err := storage.Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	client, err := provider.New(provider.Config{
		BaseURL:  mock.URL(),
		APIKey:   "integration-key",
		Cache:    cache.NewManager(db, logger),
		Governor: ratelimit.NewGovernor(governorMax, logger),
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("provider.New() error = %v", err)
	}

	service, err := recipes.NewService(recipes.Config{
		Provider:   client,
		Likes:      likes.NewStore(db, logger),
		Userdata:   userdata.NewStore(db, logger),
		Logger:     logger,
		BatchDelay: 5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("recipes.NewService() error = %v", err)
	}
	return &stack{db: db, client: client, service: service, mock: mock}
}

// TestFullRequestFlow exercises the complete path: governor check, cache
// read-through, provider fetch, write-through, and enrichment.
func TestFullRequestFlow(t *testing.T) {
	ctx := context.Background()

	mock := testutil.NewMockProvider()
	defer mock.Close()
	mock.SetRecipe(715538, testutil.RecipeJSON(715538, "Bruschetta", 10))

	dbPath := filepath.Join(t.TempDir(), "flow.db")
	s := newStack(t, mock, dbPath, 100)

	// First fetch hits the provider.
	detail, err := s.service.Detail(ctx, 715538, 0)
	if err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if detail.Title != "Bruschetta" {
		t.Errorf("Title = %q, want Bruschetta", detail.Title)
	}
	if got := mock.RequestsFor("/715538/information"); got != 1 {
		t.Errorf("provider requests = %d, want 1", got)
	}

	// Liking the recipe raises the combined popularity.
	liked, total, err := s.service.ToggleLike(ctx, 7, 715538, nil)
	if err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
	if !liked {
		t.Error("ToggleLike() liked = false, want true")
	}
	if total != 11 {
		t.Errorf("combined likes = %d, want 10 provider + 1 local = 11", total)
	}

	// Second detail fetch is served entirely from cache.
	if _, err := s.service.Detail(ctx, 715538, 7); err != nil {
		t.Fatalf("cached Detail() error = %v", err)
	}
	if got := mock.RequestsFor("/715538/information"); got != 1 {
		t.Errorf("provider requests after cached read = %d, want still 1", got)
	}
}

// TestCacheSurvivesRestart verifies the persistent tier carries entries
// across a cold start with a fresh memory tier.
func TestCacheSurvivesRestart(t *testing.T) {
	ctx := context.Background()

	mock := testutil.NewMockProvider()
	defer mock.Close()
	mock.SetRecipe(42, testutil.RecipeJSON(42, "Minestrone", 4))

	dbPath := filepath.Join(t.TempDir(), "restart.db")

	first := newStack(t, mock, dbPath, 100)
	if _, err := first.service.Detail(ctx, 42, 0); err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	first.db.Close()

	// "Restart": new stack on the same database file.
	second := newStack(t, mock, dbPath, 100)
	detail, err := second.service.Detail(ctx, 42, 0)
	if err != nil {
		t.Fatalf("Detail() after restart error = %v", err)
	}
	if detail.Title != "Minestrone" {
		t.Errorf("Title = %q, want Minestrone", detail.Title)
	}
	if got := mock.RequestsFor("/42/information"); got != 1 {
		t.Errorf("provider requests = %d, want 1 (restart served from persistent tier)", got)
	}
}

// TestGovernorProtectsProvider verifies the self-imposed ceiling stops
// outbound calls and the service degrades instead of failing.
func TestGovernorProtectsProvider(t *testing.T) {
	ctx := context.Background()

	mock := testutil.NewMockProvider()
	defer mock.Close()
	for id := int64(1); id <= 5; id++ {
		mock.SetRecipe(id, testutil.RecipeJSON(id, "Recipe", 1))
	}

	// Ceiling of 2: the first two distinct fetches go out, the rest are
	// throttled locally.
	s := newStack(t, mock, filepath.Join(t.TempDir(), "governor.db"), 2)

	previews := s.service.PreviewMany(ctx, []int64{1, 2, 3, 4, 5}, 0)
	if len(previews) != 5 {
		t.Fatalf("PreviewMany() returned %d previews, want 5", len(previews))
	}

	healthy, throttled := 0, 0
	for _, p := range previews {
		if p.Unavailable {
			if !p.RateLimited {
				t.Errorf("throttled slot %d not flagged RateLimited", p.ID)
			}
			throttled++
		} else {
			healthy++
		}
	}
	if healthy != 2 || throttled != 3 {
		t.Errorf("healthy/throttled = %d/%d, want 2/3", healthy, throttled)
	}
	if mock.Requests() != 2 {
		t.Errorf("provider requests = %d, want 2 (ceiling enforced)", mock.Requests())
	}
}

// TestQuotaExhaustionDegradesEverywhere verifies a provider-wide 402 still
// yields renderable payloads on every read path.
func TestQuotaExhaustionDegradesEverywhere(t *testing.T) {
	ctx := context.Background()

	mock := testutil.NewMockProvider()
	defer mock.Close()
	exhausted := testutil.MockResponse{
		StatusCode: http.StatusPaymentRequired,
		Body:       `{"message":"daily points limit reached"}`,
	}
	mock.SetResponse("/random", exhausted)
	mock.SetResponse("/99/information", exhausted)

	s := newStack(t, mock, filepath.Join(t.TempDir(), "quota.db"), 100)

	randoms := s.service.RandomRecipes(ctx, 3)
	if len(randoms) != 3 {
		t.Fatalf("RandomRecipes() returned %d previews, want 3 fallbacks", len(randoms))
	}
	for _, p := range randoms {
		if !p.Fallback {
			t.Errorf("random preview %d not flagged fallback", p.ID)
		}
	}

	detail, err := s.service.Detail(ctx, 99, 0)
	if err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if !detail.Fallback {
		t.Error("detail not flagged fallback under quota exhaustion")
	}
	if len(detail.Ingredients) == 0 || len(detail.Instructions) == 0 {
		t.Error("fallback detail missing renderable content")
	}
}
