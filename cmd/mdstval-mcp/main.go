package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rmax-ai/mdstval/pkg/mcp"
)

func main() {
	summary := flag.String("summary", "artifacts", "summary file, or artifact directory whose newest run is exposed as mdstval://summary")
	flag.Parse()

	s := mcp.NewServer(*summary, nil)
	if err := s.Serve(); err != nil {
		fmt.Fprintf(os.Stderr, "mdstval-mcp: %v\n", err)
		os.Exit(1)
	}
}
