// Command admintoken prints a bearer token for DELETE /api/v1/history/{id}.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/suPer8Hu/symptom-checker/internal/auth"
	"github.com/suPer8Hu/symptom-checker/internal/config"
)

func main() {
	subject := flag.String("sub", "admin", "token subject")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	if cfg.AdminJWTSecret == "" {
		fmt.Fprintln(os.Stderr, "ADMIN_JWT_SECRET is not set")
		os.Exit(1)
	}

	tok, err := auth.NewJWTService(cfg.AdminJWTSecret).Generate(*subject, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign token:", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
