package finance

// routeKey is the unique lookup key within a route index.
type routeKey struct {
	originID      int64
	destinationID int64
	isSegmentLink bool
}

// RouteIndex is a distance matrix indexed by origin, destination and
// segment flag. Lookups are O(1); the "only match wins, else fail"
// contract of the flat route list is preserved by rejecting duplicates
// at construction.
type RouteIndex map[routeKey]DistanceRoute

// NewRouteIndex builds an index from a route list. A duplicate
// (origin, destination, segment) combination is a configuration error.
func NewRouteIndex(routes []DistanceRoute) (RouteIndex, error) {
	idx := make(RouteIndex, len(routes))
	for _, r := range routes {
		key := routeKey{r.OriginID, r.DestinationID, r.IsSegmentLink}
		if _, exists := idx[key]; exists {
			return nil, Errorf(KindInvalidInput,
				"duplicate route %d->%d (segment=%t) in distance matrix", r.OriginID, r.DestinationID, r.IsSegmentLink)
		}
		idx[key] = r
	}
	return idx, nil
}

// Lookup returns the route for the given key or a typed error naming the
// missing pair so the caller can fix the distance matrix.
func (idx RouteIndex) Lookup(originID, destinationID int64, isSegmentLink bool) (DistanceRoute, error) {
	r, ok := idx[routeKey{originID, destinationID, isSegmentLink}]
	if !ok {
		legType := "direct"
		if isSegmentLink {
			legType = "segment link"
		}
		return DistanceRoute{}, Errorf(KindInvalidRoute,
			"no %s route from %d to %d in the distance matrix", legType, originID, destinationID)
	}
	return r, nil
}
