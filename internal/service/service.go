package service

// shortlinks joins a Resolver and a Writer behind one value
type shortlinks struct {
	Resolver
	Writer
}

// New combines resolver and writer into Shortlinks
func New(resolver Resolver, writer Writer) Shortlinks {
	return &shortlinks{Resolver: resolver, Writer: writer}
}
