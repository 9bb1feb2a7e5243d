package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/reqtag/request-tagger/pkg/audit"
	"github.com/reqtag/request-tagger/pkg/metrics"
	"github.com/reqtag/request-tagger/pkg/tag"
)

// DefaultTagHeader is the header carrying the request identifier when no
// override is configured.
const DefaultTagHeader = "X-Request-ID"

// TaggingOptions controls how requests are tagged
type TaggingOptions struct {
	// Header carrying the identifier on responses (and on requests when
	// TrustIncoming is set). Defaults to DefaultTagHeader.
	Header string

	// TrustIncoming reuses a client-supplied identifier instead of
	// allocating a fresh one
	TrustIncoming bool

	// Reuse flags client-supplied identifiers seen more than once inside
	// its window. Only consulted when TrustIncoming is set.
	Reuse *audit.ReuseDetector
}

// Tagging returns middleware that assigns every request a unique identifier,
// stores it in the request context and the response header, and logs it.
//
// Exactly one log record is emitted per request, before the next handler
// runs. The request is forwarded unmodified apart from its context, and
// failures from the next handler pass through untouched: there is no
// recovery, retry or wrapping here.
func Tagging(gen *tag.Generator, logger *logrus.Logger, opts TaggingOptions) Middleware {
	header := opts.Header
	if header == "" {
		header = DefaultTagHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t, err := resolveTag(gen, r, header, opts)
			if err != nil {
				// The identifier space is spent; refuse rather than
				// reissue (see Generator.Next)
				metrics.RecordExhaustion()
				logger.WithError(err).Error("Identifier allocation failed")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"error":"identifier sequence exhausted"}`))
				return
			}

			if t.ClientSupplied() {
				if opts.Reuse != nil && opts.Reuse.Seen(t.String()) {
					metrics.RecordReusedID()
					logger.WithFields(logrus.Fields{
						"request_id":  t.String(),
						"remote_addr": r.RemoteAddr,
					}).Warn("Client reused a recent request identifier")
				}
			} else {
				metrics.SetTagSequence(t.Sequence())
			}

			w.Header().Set(header, t.String())

			logger.WithFields(logrus.Fields{
				"request_id": t.String(),
				"instance":   t.Instance(),
				"method":     r.Method,
				"path":       r.URL.Path,
			}).Info(fmt.Sprintf("Request %s executing.", t))

			next.ServeHTTP(w, r.WithContext(tag.NewContext(r.Context(), t)))
		})
	}
}

// resolveTag picks a client-supplied identifier when trusted, otherwise
// allocates exactly one from the generator
func resolveTag(gen *tag.Generator, r *http.Request, header string, opts TaggingOptions) (*tag.Tag, error) {
	if opts.TrustIncoming {
		if id := strings.TrimSpace(r.Header.Get(header)); id != "" {
			return tag.FromInbound(id), nil
		}
	}
	return tag.New(gen)
}
