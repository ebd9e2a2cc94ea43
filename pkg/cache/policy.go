package cache

import (
	"net/http"
	"net/textproto"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pquerna/cachecontrol/cacheobject"
)

// statusCacheableByDefault lists the status codes a cache may store without
// explicit freshness information (RFC 9110 section 15.1).
var statusCacheableByDefault = map[int]bool{
	http.StatusOK:                   true,
	http.StatusNonAuthoritativeInfo: true,
	http.StatusNoContent:            true,
	http.StatusMultipleChoices:      true,
	http.StatusMovedPermanently:     true,
	http.StatusPermanentRedirect:    true,
	http.StatusNotFound:             true,
	http.StatusMethodNotAllowed:     true,
	http.StatusGone:                 true,
	http.StatusRequestURITooLong:    true,
	http.StatusNotImplemented:       true,
}

// Headers describing the framing of a specific message. They are never
// copied from a 304 onto the stored response.
var excludedFromRevalidationUpdate = map[string]bool{
	"Content-Length":    true,
	"Content-Encoding":  true,
	"Transfer-Encoding": true,
	"Content-Range":     true,
}

// PolicyOptions selects the cache profile a Policy is evaluated under.
type PolicyOptions struct {
	// Shared marks a proxy-style cache. Shared caches honor s-maxage and
	// refuse private responses.
	Shared bool

	// Heuristic enables Last-Modified based freshness for responses without
	// an explicit lifetime: 10% of (Date - Last-Modified), at most 24h.
	Heuristic bool
}

// PrivatePolicyOptions returns the profile for a single-consumer cache.
func PrivatePolicyOptions() PolicyOptions {
	return PolicyOptions{
		Shared:    false,
		Heuristic: true,
	}
}

// Policy is the serializable cache state of one stored response. It answers
// whether the response may be stored, whether it is still fresh, and how to
// revalidate it once it is not.
type Policy struct {
	Method            string      `cbor:"method"`
	URL               string      `cbor:"url"`
	StatusCode        int         `cbor:"status"`
	ResponseHeader    http.Header `cbor:"resh"`
	VaryHeader        http.Header `cbor:"vary,omitempty"`
	RequestNoStore    bool        `cbor:"req_no_store,omitempty"`
	RequestAuthorized bool        `cbor:"req_auth,omitempty"`
	RequestTime       time.Time   `cbor:"req_time"`
	ResponseTime      time.Time   `cbor:"res_time"`
	Shared            bool        `cbor:"shared,omitempty"`
	Heuristic         bool        `cbor:"heuristic,omitempty"`
}

// NewPolicy captures the cache state of resp, received at now in answer to req.
func NewPolicy(req *http.Request, resp *http.Response, now time.Time, opts PolicyOptions) *Policy {
	p := &Policy{
		Method:            req.Method,
		URL:               req.URL.String(),
		StatusCode:        resp.StatusCode,
		ResponseHeader:    resp.Header.Clone(),
		RequestAuthorized: req.Header.Get("Authorization") != "",
		RequestTime:       now,
		ResponseTime:      now,
		Shared:            opts.Shared,
		Heuristic:         opts.Heuristic,
	}
	if p.ResponseHeader == nil {
		p.ResponseHeader = http.Header{}
	}
	if p.Method == "" {
		p.Method = http.MethodGet
	}
	if rd := requestDirectives(req.Header); rd.NoStore {
		p.RequestNoStore = true
	}
	p.VaryHeader = captureVary(p.ResponseHeader, req.Header)
	return p
}

// Storable reports whether the response may be written to the cache at all.
// Method and status are restricted here; directives, Authorization and
// request no-store are judged by cacheobject.
func (p *Policy) Storable() bool {
	if p.Method != http.MethodGet {
		return false
	}
	if !statusCacheableByDefault[p.StatusCode] {
		return false
	}

	var rv cacheobject.ObjectResults
	cacheobject.CachableObject(p.object(), &rv)
	for _, reason := range rv.OutReasons {
		// Status codes were already checked against statusCacheableByDefault.
		if reason != cacheobject.ReasonResponseUncachableByDefault {
			return false
		}
	}
	return true
}

// FreshnessLifetime is how long the response stays fresh after it was
// generated by the origin.
func (p *Policy) FreshnessLifetime() time.Duration {
	rd := p.directives()
	if rd.NoCachePresent {
		return 0
	}
	if p.Shared && rd.PrivatePresent {
		return 0
	}
	if raw := p.ResponseHeader.Get("Expires"); raw != "" && rd.MaxAge == -1 && (!p.Shared || rd.SMaxAge == -1) {
		// An invalid Expires means "already expired".
		if _, err := http.ParseTime(raw); err != nil {
			return 0
		}
	}

	obj := p.object()
	var rv cacheobject.ObjectResults
	cacheobject.ExpirationObject(obj, &rv)
	if rv.OutExpirationTime.IsZero() {
		return 0
	}
	if !p.Heuristic && slices.Contains(rv.OutWarnings, cacheobject.WarningHeuristicExpiration) {
		return 0
	}
	return nonNegative(rv.OutExpirationTime.Sub(obj.NowUTC))
}

// object describes the stored response to cacheobject, evaluated at the
// response's Date so expirations come back relative to it.
func (p *Policy) object() *cacheobject.Object {
	date := p.date().UTC()
	obj := &cacheobject.Object{
		CacheIsPrivate: !p.Shared,
		RespDirectives: p.directives(),
		RespHeaders:    p.ResponseHeader,
		RespStatusCode: p.StatusCode,
		RespDateHeader: date,
		ReqDirectives: &cacheobject.RequestCacheDirectives{
			MaxAge:   -1,
			MaxStale: -1,
			MinFresh: -1,
			NoStore:  p.RequestNoStore,
		},
		ReqHeaders: http.Header{},
		ReqMethod:  p.Method,
		NowUTC:     date,
	}
	// Authorization only restricts shared caches.
	if p.Shared && p.RequestAuthorized {
		obj.ReqHeaders.Set("Authorization", "present")
	}
	if t, err := http.ParseTime(p.ResponseHeader.Get("Expires")); err == nil {
		obj.RespExpiresHeader = t.UTC()
	}
	if t, err := http.ParseTime(p.ResponseHeader.Get("Last-Modified")); err == nil {
		obj.RespLastModifiedHeader = t.UTC()
	}
	return obj
}

// Age estimates the current age of the stored response.
func (p *Policy) Age(now time.Time) time.Duration {
	apparent := nonNegative(p.ResponseTime.Sub(p.date()))
	corrected := time.Duration(0)
	if raw := p.ResponseHeader.Get("Age"); raw != "" {
		if secs, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil && secs > 0 {
			corrected = seconds(secs) + p.ResponseTime.Sub(p.RequestTime)
		}
	}
	initial := max(apparent, corrected)
	return initial + nonNegative(now.Sub(p.ResponseTime))
}

// TimeToLive returns the remaining freshness at now, or 0 once stale.
func (p *Policy) TimeToLive(now time.Time) time.Duration {
	return nonNegative(p.FreshnessLifetime() - p.Age(now))
}

// IsStale reports whether the response needs revalidation at now.
func (p *Policy) IsStale(now time.Time) bool {
	return p.Age(now) >= p.FreshnessLifetime()
}

// SatisfiedWithoutRevalidation reports whether the stored response can answer
// req at now without contacting the origin.
func (p *Policy) SatisfiedWithoutRevalidation(req *http.Request, now time.Time) bool {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	if method != p.Method {
		return false
	}
	if !p.varyMatches(req.Header) {
		return false
	}

	rd := requestDirectives(req.Header)
	if rd.NoCache || strings.Contains(strings.ToLower(req.Header.Get("Pragma")), "no-cache") {
		return false
	}

	age := p.Age(now)
	if rd.MaxAge != -1 && age > seconds(int64(rd.MaxAge)) {
		return false
	}
	if rd.MinFresh != -1 && p.TimeToLive(now) < seconds(int64(rd.MinFresh)) {
		return false
	}
	return age < p.FreshnessLifetime()
}

// RevalidationHeaders returns the headers for a conditional request that
// revalidates the stored response. req's own headers are preserved.
func (p *Policy) RevalidationHeaders(req *http.Request) http.Header {
	h := req.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Del("If-None-Match")
	h.Del("If-Modified-Since")
	h.Del("If-Match")
	h.Del("If-Unmodified-Since")
	h.Del("If-Range")

	// ETag is the more precise validator, Last-Modified is the fallback.
	if etag := p.ResponseHeader.Get("ETag"); etag != "" {
		h.Set("If-None-Match", etag)
	} else if lastModified := p.ResponseHeader.Get("Last-Modified"); lastModified != "" {
		h.Set("If-Modified-Since", lastModified)
	}
	return h
}

// HasValidators reports whether a conditional request can be built.
func (p *Policy) HasValidators() bool {
	return p.ResponseHeader.Get("ETag") != "" || p.ResponseHeader.Get("Last-Modified") != ""
}

// Revalidate folds the origin's answer to a conditional request into a new
// policy. modified is false only for a 304 whose validators match the stored
// response; the caller then keeps the stored body.
func (p *Policy) Revalidate(req *http.Request, resp *http.Response, now time.Time) (updated *Policy, modified bool) {
	opts := PolicyOptions{Shared: p.Shared, Heuristic: p.Heuristic}
	if resp.StatusCode != http.StatusNotModified || !p.validatorsMatch(resp.Header) {
		return NewPolicy(req, resp, now, opts), true
	}

	merged := p.ResponseHeader.Clone()
	for name, values := range resp.Header {
		if excludedFromRevalidationUpdate[name] {
			continue
		}
		merged[name] = append([]string(nil), values...)
	}
	// Age is measured from the 304, never from the response it refreshed.
	if resp.Header.Get("Date") == "" {
		merged.Del("Date")
	}
	if resp.Header.Get("Age") == "" {
		merged.Del("Age")
	}

	updated = &Policy{
		Method:            p.Method,
		URL:               p.URL,
		StatusCode:        p.StatusCode,
		ResponseHeader:    merged,
		VaryHeader:        captureVary(merged, req.Header),
		RequestNoStore:    requestDirectives(req.Header).NoStore,
		RequestAuthorized: req.Header.Get("Authorization") != "",
		RequestTime:       now,
		ResponseTime:      now,
		Shared:            p.Shared,
		Heuristic:         p.Heuristic,
	}
	return updated, false
}

func (p *Policy) validatorsMatch(h http.Header) bool {
	if etag := h.Get("ETag"); etag != "" {
		return weakETag(etag) == weakETag(p.ResponseHeader.Get("ETag"))
	}
	if lastModified := h.Get("Last-Modified"); lastModified != "" {
		stored := p.ResponseHeader.Get("Last-Modified")
		if stored == "" {
			return false
		}
		a, errA := http.ParseTime(lastModified)
		b, errB := http.ParseTime(stored)
		return errA == nil && errB == nil && a.Equal(b)
	}
	// A 304 without validators refers to the single response we hold.
	return true
}

func (p *Policy) varyMatches(reqHeader http.Header) bool {
	vary := p.ResponseHeader.Values("Vary")
	for _, line := range vary {
		for _, field := range strings.Split(line, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			if field == "*" {
				return false
			}
			name := textproto.CanonicalMIMEHeaderKey(field)
			if strings.Join(reqHeader.Values(name), ",") != strings.Join(p.VaryHeader.Values(name), ",") {
				return false
			}
		}
	}
	return true
}

func (p *Policy) directives() *cacheobject.ResponseCacheDirectives {
	return responseDirectives(p.ResponseHeader)
}

func (p *Policy) date() time.Time {
	if raw := p.ResponseHeader.Get("Date"); raw != "" {
		if date, err := http.ParseTime(raw); err == nil {
			return date
		}
	}
	return p.ResponseTime
}

func responseDirectives(h http.Header) *cacheobject.ResponseCacheDirectives {
	rd, err := cacheobject.ParseResponseCacheControl(strings.Join(h.Values("Cache-Control"), ", "))
	if err != nil || rd == nil {
		// Unparseable directives: never store what we cannot interpret.
		return &cacheobject.ResponseCacheDirectives{MaxAge: -1, SMaxAge: -1, NoStore: true}
	}
	return rd
}

func requestDirectives(h http.Header) *cacheobject.RequestCacheDirectives {
	rd, err := cacheobject.ParseRequestCacheControl(strings.Join(h.Values("Cache-Control"), ", "))
	if err != nil || rd == nil {
		return &cacheobject.RequestCacheDirectives{MaxAge: -1, MaxStale: -1, MinFresh: -1}
	}
	return rd
}

func captureVary(respHeader, reqHeader http.Header) http.Header {
	var captured http.Header
	for _, line := range respHeader.Values("Vary") {
		for _, field := range strings.Split(line, ",") {
			field = strings.TrimSpace(field)
			if field == "" || field == "*" {
				continue
			}
			name := textproto.CanonicalMIMEHeaderKey(field)
			if captured == nil {
				captured = http.Header{}
			}
			if values := reqHeader.Values(name); len(values) > 0 {
				captured[name] = append([]string(nil), values...)
			}
		}
	}
	return captured
}

func weakETag(etag string) string {
	return strings.TrimPrefix(strings.TrimSpace(etag), "W/")
}

func seconds(n int64) time.Duration {
	return time.Duration(n) * time.Second
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
