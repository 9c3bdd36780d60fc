package transcript

// FollowThreshold is how close to the bottom of the transcript view, in
// layout units, the viewport must be for new content to keep it pinned.
const FollowThreshold = 80

// ShouldFollow reports whether appended content may relocate the viewport.
// Once the user scrolls further away than the threshold, streaming appends
// must not fight their position.
func ShouldFollow(distanceFromBottom float64) bool {
	return distanceFromBottom <= FollowThreshold
}
