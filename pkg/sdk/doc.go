// Package serprank embeds the serprank search-and-record flow in a Go program
// without running the HTTP service.
//
//	client, _ := serprank.New(
//	    serprank.WithCredentials(os.Getenv("API_KEY"), os.Getenv("CX")),
//	    serprank.WithOutputDir("records"),
//	)
//	res, err := client.Search(ctx, "rust vs go", "golang.org")
//	if err != nil {
//	    return err
//	}
//	if res.Found {
//	    fmt.Println("found at", res.MatchedRank, "saved to", res.File)
//	}
package serprank
