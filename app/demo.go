package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/km-arc/go-ioc/framework/config"
	"github.com/km-arc/go-ioc/framework/container"
)

var (
	demoWrite = container.Inject2(container.Ref[config.AppConfig](), container.Mut[AppState](),
		func(_ config.AppConfig, state *AppState) string {
			state.Subject = "penguins"
			return "subject set to " + state.Subject
		})

	demoRead = container.Inject2(container.Ref[config.AppConfig](), container.Ref[AppState](),
		func(_ config.AppConfig, state AppState) string {
			return state.Message()
		})

	demoS3 = container.Inject2(container.Ref[config.AppConfig](), container.Owned[S3Client](),
		func(_ config.AppConfig, client S3Client) string {
			return client.GetObject("greetings/hello.txt")
		})

	demoInvalid = container.Inject1(container.Mut[config.AppConfig](), func(*config.AppConfig) string {
		return "unreachable"
	})
)

// RunDemo resolves the demo services by hand, through injected functions,
// and from several goroutines at once, writing what it sees to w.
func RunDemo(ctx context.Context, w io.Writer, res container.Resolver) error {
	fmt.Fprintln(w, "Resolving services manually...")
	if err := setSubject(res, "frogs"); err != nil {
		return err
	}
	state, err := container.ResolveRef[AppState](res)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Hello %s\n", state.Value().Subject)
	state.Release()

	client, err := container.ResolveOwned[S3Client](res)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%d objects in %s\n", len(client.ListObjects("")), client.Bucket)

	steps := []container.Injected[string]{demoWrite, demoRead, demoS3}

	fmt.Fprintln(w, "Running injected functions...")
	for _, step := range steps {
		out, err := step(res)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, out)
	}

	fmt.Fprintln(w, "Running injected functions on separate goroutines...")
	results := make([]string, len(steps))
	g, _ := errgroup.WithContext(ctx)
	for i, step := range steps {
		g.Go(func() error {
			out, err := step(res)
			results[i] = out
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, out := range results {
		fmt.Fprintln(w, out)
	}

	fmt.Fprintln(w, "Requesting a mutable reference to an immutable service...")
	_, err = demoInvalid(res)
	if !errors.Is(err, container.ErrMutImmutable) {
		return fmt.Errorf("app: expected a MutImmutable refusal, got %v", err)
	}
	fmt.Fprintf(w, "refused: %v\n", err)
	return nil
}

func setSubject(res container.Resolver, subject string) error {
	state, err := container.ResolveMut[AppState](res)
	if err != nil {
		return err
	}
	defer state.Release()
	state.Ptr().Subject = subject
	return nil
}
