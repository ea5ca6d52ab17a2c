package server

import (
	"errors"
	"math/rand"
	"strings"
)

const roomCodeLength = 4

// GenerateRoomCode returns a random four letter code for which taken
// reports false.
func GenerateRoomCode(taken func(code string) bool) string {
	for {
		code := make([]byte, roomCodeLength)
		for i := range code {
			code[i] = 'A' + byte(rand.Intn(26))
		}
		roomCode := string(code)

		if !taken(roomCode) {
			return roomCode
		}
	}
}

func ValidateRoomCode(code string) error {
	if len(code) != roomCodeLength {
		return errors.New("INVALID_ROOM_CODE: Room code must be exactly 4 characters")
	}

	for _, ch := range code {
		if ch < 'A' || ch > 'Z' {
			return errors.New("INVALID_ROOM_CODE: Room code must contain only letters A-Z")
		}
	}

	return nil
}

func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
