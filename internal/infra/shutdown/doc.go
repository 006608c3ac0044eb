// Package shutdown coordinates graceful termination of the serve command.
//
// A Handler waits for SIGINT, SIGTERM, a Trigger call or the end of a
// context, then runs the registered hooks in reverse order under a
// timeout:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown(srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
