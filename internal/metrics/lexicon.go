package metrics

// Lexicon tables per spec §4.3. Per the Open Question note in spec §9
// ("content decisions... kept verbatim from the source rather than
// re-derived"), these are the literal enumerations spec.md §4.3 gives;
// there is no recoverable original_source/ formula to mine instead.

// antonymPairs are matched substring-wise on NFC-folded lowercase forms of
// two constraints; a pair firing increments contradiction_count.
var antonymPairs = [][2]string{
	{"sync", "async"},
	{"public", "private"},
	{"sql", "nosql"},
	{"rest", "graphql"},
	{"stateless", "stateful"},
	{"online", "offline"},
	{"required", "optional"},
	{"real-time", "batch"},
	{"single-tenant", "multi-tenant"},
	{"open-source", "closed-source"},
}

// placeholderTokens are matched case-insensitively, word-boundary aware
// (so "TodoList" must not match "TODO").
var placeholderTokens = []string{
	"TBD",
	"TODO",
	"FIXME",
	"???",
	"...",
	"[TBD]",
	"(TBD)",
	"<TBD>",
	"{TBD}",
	"TO BE DETERMINED",
	"PLACEHOLDER",
	"XXX",
	"NEEDS_WORK",
	"<<INSERT HERE>>",
}

// concreteNouns is a small built-in lexicon of technology, metric, format,
// and identifier terms; a constraint containing at least one (as a
// substring of its lowercase form) counts toward concrete_constraints.
var concreteNouns = []string{
	// technology
	"jwt", "oauth", "postgres", "mysql", "redis", "kafka", "grpc", "http",
	"tcp", "tls", "docker", "kubernetes", "s3", "dynamodb", "graphql",
	"websocket", "json", "yaml", "protobuf",
	// metric
	"ms", "seconds", "minute", "hour", "percent", "%", "rps", "qps", "p99",
	"p95", "latency", "throughput", "timeout",
	// format
	"uuid", "iso-8601", "base64", "utf-8", "csv", "pdf",
	// identifier
	"id", "key", "token", "session", "schema", "version",
}
