// Package ragcore embeds the ragcore retrieval-augmented question answering
// pipeline into a Go program without running the HTTP server.
//
// A Client connects to the chunk store, starts the ingestion workers and
// exposes per-project operations:
//
//	client, _ := ragcore.New(ctx,
//	    ragcore.WithValkey("localhost:6379", ""),
//	    ragcore.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	    ragcore.WithBlobRoot("data/blobs"),
//	)
//	defer client.Close(ctx)
//
//	p := client.Project("permits")
//	doc, _ := p.Upload(ctx, "zoning.md", content, ragcore.WithMimeType("text/markdown"))
//	doc, _ = p.Wait(ctx, doc.ID, time.Second)
//
//	ans, _ := p.Ask(ctx, "What setback applies to lot 4?")
//	for _, c := range ans.Citations {
//	    fmt.Println(c.DocumentName, c.ChunkIndex, c.Similarity)
//	}
package ragcore
