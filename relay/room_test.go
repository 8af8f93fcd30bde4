package relay

import "testing"

func TestFirstMemberBecomesHost(t *testing.T) {
	room := newRoom("r1")
	alice := &participant{id: "alice", outbound: make(chan []byte, 1)}
	bob := &participant{id: "bob", outbound: make(chan []byte, 1)}

	if !room.addMember(alice) {
		t.Fatal("addMember(alice) should succeed on a fresh room")
	}
	if !room.addMember(bob) {
		t.Fatal("addMember(bob) should succeed before match start")
	}
	if !room.isHost("alice") {
		t.Fatal("the first joiner should be host")
	}
	if room.isHost("bob") {
		t.Fatal("bob should not be host")
	}
}

func TestHostMigratesToNextJoinedMember(t *testing.T) {
	room := newRoom("r1")
	alice := &participant{id: "alice", outbound: make(chan []byte, 1)}
	bob := &participant{id: "bob", outbound: make(chan []byte, 1)}
	room.addMember(alice)
	room.addMember(bob)

	newHost, migrated := room.removeMember("alice")
	if !migrated {
		t.Fatal("removing the host should migrate host status")
	}
	if newHost != "bob" {
		t.Fatalf("new host = %q, want bob", newHost)
	}
	if !room.isHost("bob") {
		t.Fatal("bob should now be host")
	}
}

func TestRemovingNonHostDoesNotMigrate(t *testing.T) {
	room := newRoom("r1")
	alice := &participant{id: "alice", outbound: make(chan []byte, 1)}
	bob := &participant{id: "bob", outbound: make(chan []byte, 1)}
	room.addMember(alice)
	room.addMember(bob)

	_, migrated := room.removeMember("bob")
	if migrated {
		t.Fatal("removing a non-host should not migrate host status")
	}
	if !room.isHost("alice") {
		t.Fatal("alice should remain host")
	}
}

func TestAddMemberRejectedAfterMatchStart(t *testing.T) {
	room := newRoom("r1")
	alice := &participant{id: "alice", outbound: make(chan []byte, 1)}
	room.addMember(alice)
	room.start()

	carol := &participant{id: "carol", outbound: make(chan []byte, 1)}
	if room.addMember(carol) {
		t.Fatal("addMember should reject joins after the match has started")
	}
}

func TestRematchReturnsToLobbyPhase(t *testing.T) {
	room := newRoom("r1")
	alice := &participant{id: "alice", outbound: make(chan []byte, 1)}
	room.addMember(alice)
	room.start()
	room.rematch()

	carol := &participant{id: "carol", outbound: make(chan []byte, 1)}
	if !room.addMember(carol) {
		t.Fatal("addMember should succeed again once the room is back in lobby phase")
	}
}

func TestStartFixesPlayerOrder(t *testing.T) {
	room := newRoom("r1")
	room.addMember(&participant{id: "b", outbound: make(chan []byte, 1)})
	room.addMember(&participant{id: "a", outbound: make(chan []byte, 1)})

	order := room.start()
	if len(order) != 2 || order[0] != "b" || order[1] != "a" {
		t.Fatalf("order = %v, want join order [b a]", order)
	}
}

func TestBroadcastExcludesGivenID(t *testing.T) {
	room := newRoom("r1")
	alice := &participant{id: "alice", outbound: make(chan []byte, 1)}
	bob := &participant{id: "bob", outbound: make(chan []byte, 1)}
	room.addMember(alice)
	room.addMember(bob)

	room.broadcast([]byte("hi"), "alice")

	select {
	case <-alice.outbound:
		t.Fatal("excluded member should not receive the broadcast")
	default:
	}
	select {
	case msg := <-bob.outbound:
		if string(msg) != "hi" {
			t.Fatalf("bob received %q, want hi", msg)
		}
	default:
		t.Fatal("bob should have received the broadcast")
	}
}
