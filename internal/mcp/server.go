package mcp

import (
	"crypto/subtle"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const SecretHeader = "X-MCP-Secret"

// NewServer builds an MCP server with the liftlog analytics tools: exercise stats, profile insights,
// weight series, catalog search.
// Used by the main backend when mounting MCP at /mcp and by cmd/liftlog_mcp over stdio.
func NewServer(service analyticsService, version string) *mcp.Server {
	h := NewHandler(service)
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "liftlog-analytics",
		Version: version,
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_exercise_stats",
		Description: "Returns per-exercise stats (logs, max/avg weight, total sets, last log, trend up/down/stable with percentage) for an owner, most logged first. Optional filter: category (e.g. Chest, Legs).",
	}, h.GetExerciseStatsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_profile_insights",
		Description: "Returns the profile summary of an owner (total workouts, unique exercises, favorite category, current streak, max weight, workouts per week, top exercise) and the achievement list with unlocked flags.",
	}, h.GetProfileInsightsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_weight_series",
		Description: "Returns the average weight per calendar day over the last 30 logged dates of an owner, oldest first. Optional: exercise_name to limit the series to one exercise.",
	}, h.GetWeightSeriesTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "search_exercise_catalog",
		Description: "Searches the predefined exercise catalog (name, category, image url). Optional: query (name substring), category.",
	}, h.SearchCatalogTool())

	return s
}

// NewHTTPHandler serves the MCP server over streamable HTTP. Requests must carry the shared secret
// in the X-MCP-Secret header.
func NewHTTPHandler(server *mcp.Server, secret string) http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)

	guarded := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if !secretMatches(r.Header.Get(SecretHeader), secret) {
			log.Tracef("[mcp] unauthorized request from %s", r.RemoteAddr)
			http.Error(w, "no can do", http.StatusUnauthorized)
			return
		}
		streamable.ServeHTTP(w, r)
	})

	return otelhttp.NewHandler(guarded, "mcp")
}

func secretMatches(got, want string) bool {
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
