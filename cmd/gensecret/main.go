// Command gensecret prints a random signing secret suitable for the
// JWT_SECRET environment variable.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

func main() {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		fmt.Fprintln(os.Stderr, "failed to read random bytes:", err)
		os.Exit(1)
	}

	fmt.Println(hex.EncodeToString(buf))
}
