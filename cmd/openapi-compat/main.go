// Command openapi-compat fails when a revised OpenAPI document breaks clients of the base one.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"resonate/internal/docs"
)

func main() {
	basePath := flag.String("base", "", "base OpenAPI swagger.yaml path; empty uses the embedded document")
	revisionPath := flag.String("revision", "", "revision OpenAPI swagger.yaml path")
	flag.Parse()

	if strings.TrimSpace(*revisionPath) == "" {
		fmt.Fprintln(os.Stderr, "usage: openapi-compat [-base <path>] -revision <path>")
		os.Exit(2)
	}

	base, err := load(*basePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load base spec: %v\n", err)
		os.Exit(1)
	}
	revision, err := load(*revisionPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load revision spec: %v\n", err)
		os.Exit(1)
	}

	if issues := docs.Compare(base, revision); len(issues) > 0 {
		fmt.Fprintln(os.Stderr, "backward compatibility check failed:")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "- %s\n", issue)
		}
		os.Exit(1)
	}

	fmt.Println("openapi compatibility check passed")
}

func load(path string) (*docs.Document, error) {
	if strings.TrimSpace(path) == "" {
		return docs.Embedded()
	}
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return docs.Parse(raw)
}
