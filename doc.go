// Package deepgram provides a Go client for the Deepgram real-time
// speech-to-text WebSocket API, including a connection pool for
// latency-sensitive workloads.
//
// The package has two entry points: Session for a single streaming
// connection, and Pool for a managed set of warm connections that callers
// check out and return.
//
// # Quick Start
//
// Create a session, register handlers and stream audio:
//
//	session, err := deepgram.NewSession("wss://api.deepgram.com/v1/listen", apiKey)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	options := &deepgram.AudioStreamOptions{
//	    Encoding:   "linear16",
//	    SampleRate: 16000,
//	    Channels:   1,
//	    Model:      "nova-2",
//	}
//	session.SetOptions(options)
//
//	session.SetOnTranscript(func(msg *deepgram.TranscriptMessage) {
//	    if msg.IsFinal {
//	        fmt.Println(msg.Transcript)
//	    }
//	})
//
//	if err := session.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Send audio data
//	session.SendAudio(audioBytes)
//
//	// Close when done
//	session.Disconnect()
//
// # Connection Pooling
//
// A Pool keeps sessions connected ahead of demand so a caller that finds a
// warm session skips the WebSocket handshake. When no idle session is
// queued and the pool is below its maximum, Acquire dials a new one:
//
//	pool, err := deepgram.NewPool(url, apiKey, deepgram.NewPoolConfig(), options)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Close()
//
//	ps, err := pool.Acquire(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ps.SendAudio(audioBytes)
//	pool.Release(ps)
//
// Pool behaviour is tuned through PoolConfig and observed through
// PoolMetrics.
//
// # Error Handling
//
// All errors implement the standard error interface and can be type-asserted
// to *deepgram.Error for detailed information:
//
//	if err != nil {
//	    var dgErr *deepgram.Error
//	    if errors.As(err, &dgErr) {
//	        fmt.Printf("Status: %s, Code: %v\n", dgErr.Status, dgErr.Code)
//	    }
//	}
//
// # Keep-Alive
//
// Idle pooled sessions periodically send KeepAlive control frames so the
// server does not drop them. The interval is set on PoolConfig; a zero
// interval disables the loop.
package deepgram
