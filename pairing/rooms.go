package pairing

// Rooms is the fixed, ordered set of colour-coded rooms of the reference
// venue. Index order drives assignment, so the mapping is deterministic
// for a given pairing order.
var Rooms = []string{
	"Crimson",
	"Royal Blue",
	"Forest Green",
	"Burnt Orange",
	"Deep Purple",
	"Teal",
	"Gold",
	"Ivory",
	"Magenta",
	"Olive",
}

// AssignRooms maps each pairing to a room. prev holds the room each
// participant played in during the immediately preceding round.
//
// For each pairing the lowest-index room that is unused this round and
// was not used by either participant last round wins. If every unused
// room collides with a previous room, the lowest-index unused room is
// taken anyway. Once all rooms are in use, assignment wraps round-robin
// and collisions are accepted.
func AssignRooms(pairs []Pair, prev map[int]string) map[Pair]string {
	return AssignRoomsAvoiding(pairs, prev, nil)
}

// AssignRoomsAvoiding works like AssignRooms but additionally treats the
// inUse rooms as taken, e.g. rooms held by games preserved through a
// round repair.
func AssignRoomsAvoiding(pairs []Pair, prev map[int]string, inUse []string) map[Pair]string {
	assigned := make(map[Pair]string, len(pairs))
	used := make(map[string]bool, len(Rooms))
	for _, room := range inUse {
		used[room] = true
	}

	for i, pair := range pairs {
		if len(assigned)%len(Rooms) == 0 && i >= len(Rooms) {
			// Round-robin wrap: every room has been handed out.
			used = make(map[string]bool, len(Rooms))
		}

		room := pickRoom(pair, prev, used)
		assigned[pair] = room
		used[room] = true
	}
	return assigned
}

func pickRoom(pair Pair, prev map[int]string, used map[string]bool) string {
	fallback := ""
	for _, room := range Rooms {
		if used[room] {
			continue
		}
		if fallback == "" {
			fallback = room
		}
		if room != prev[pair.A] && room != prev[pair.B] {
			return room
		}
	}
	if fallback != "" {
		return fallback
	}
	// All rooms taken this round.
	return Rooms[0]
}
