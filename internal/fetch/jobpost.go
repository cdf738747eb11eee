package fetch

import (
	"context"
	"strings"

	"github.com/jonathan/resumeai/internal/logger"
)

// JobPostFetcher turns a job posting URL into plain text.
type JobPostFetcher struct {
	Options *Options
	// Render, when set, is used for pages whose static HTML yields too little text.
	Render RenderFunc
	Logger *logger.Logger
}

// NewJobPostFetcher creates a fetcher. useBrowser enables the headless Chrome fallback.
func NewJobPostFetcher(useBrowser bool, log *logger.Logger) *JobPostFetcher {
	f := &JobPostFetcher{Options: DefaultOptions(), Logger: log}
	if useBrowser {
		f.Render = ChromeRenderer(DefaultBrowserTimeout)
	}
	return f
}

// FetchText retrieves the posting at url and returns its main text.
func (f *JobPostFetcher) FetchText(ctx context.Context, url string) (string, error) {
	log := f.Logger
	if log == nil {
		log = logger.Nop()
	}

	platform := DetectPlatform(url)
	content := PlatformContentSelectors(platform)
	noise := PlatformNoiseSelectors(platform)

	result, err := URL(ctx, url, f.Options)
	if err != nil {
		return "", err
	}
	text, err := ExtractMainText(result.HTML, content, noise...)
	if err != nil {
		return "", &Error{URL: url, Message: "failed to extract text", Cause: err}
	}

	if f.Render != nil && ShouldUseBrowser(text) {
		log.Debug("job posting text too short, rendering in browser", "url", url, "platform", string(platform), "chars", len(text))
		html, renderErr := f.Render(ctx, url)
		if renderErr != nil {
			log.Warn("browser render failed, using static text", "url", url, "error", renderErr)
		} else if rendered, extractErr := ExtractMainText(html, content, noise...); extractErr == nil && len(rendered) > len(text) {
			text = rendered
		}
	}

	if strings.TrimSpace(text) == "" {
		return "", &Error{URL: url, Message: "no text found"}
	}
	return text, nil
}
