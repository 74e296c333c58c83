// Command devtoken prints a bearer token signed with JWT_SECRET for local testing.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"eventlottery/config"
	"eventlottery/internal/adapters/auth"
)

func main() {
	userID := flag.String("user", "", "user ID placed in the token subject (required)")
	email := flag.String("email", "", "email claim")
	roles := flag.String("roles", "", "comma-separated roles claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "devtoken: -user is required")
		flag.Usage()
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "devtoken:", err)
		os.Exit(1)
	}

	var roleList []string
	for _, r := range strings.Split(*roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roleList = append(roleList, r)
		}
	}
	token, err := auth.NewJWTIssuer(cfg.JWTSecret).Issue(*userID, *email, roleList, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "devtoken:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
