package httpmodel

// Redirect builds a 3xx response: a Location header and no body.
type Redirect struct {
	Status   Status
	Location string
}

// Permanent returns a 308 Permanent Redirect to uri: status 308 with
// Location: uri and no body.
func Permanent(uri string) Redirect { return Redirect{Status: StatusPermanentRedirect, Location: uri} }

// Temporary returns a 307 Temporary Redirect to uri, which (unlike 302/303)
// guarantees the client repeats the original method and body.
func Temporary(uri string) Redirect { return Redirect{Status: StatusTemporaryRedirect, Location: uri} }

// Found returns a 302 Found redirect to uri.
func Found(uri string) Redirect { return Redirect{Status: StatusFound, Location: uri} }

// SeeOther returns a 303 See Other redirect to uri, instructing the client
// to re-fetch with GET regardless of the original method.
func SeeOther(uri string) Redirect { return Redirect{Status: StatusSeeOther, Location: uri} }

// Apply writes the Location header and status into rrb, clearing any
// existing body, so a single Redirect value can be used to fill in a
// ReqResBuffer in place (the "_raw" variants in the original source operate
// directly on a live response's headers rather than building a fresh one).
func (r Redirect) Apply(rrb *ReqResBuffer) error {
	rrb.Status = r.Status
	rrb.Body = rrb.Body[:0]
	return rrb.Headers.PushFromIter([]byte("location"), [][]byte{[]byte(r.Location)}, false, false)
}
