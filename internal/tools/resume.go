package tools

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/resume"
)

// QueryResumeRequest are the arguments of query_resume.
type QueryResumeRequest struct {
	Query string `json:"query"`
}

func (r QueryResumeRequest) validate() error {
	if !slices.Contains(resume.Topics, r.Query) {
		return fmt.Errorf("query must be one of %s", strings.Join(resume.Topics, ", "))
	}
	return nil
}

func (r QueryResumeRequest) logFields() []zap.Field {
	return []zap.Field{zap.String("query", r.Query)}
}

// QueryResume answers questions about the applicant from the loaded resume.
type QueryResume struct {
	definition
	resume *resume.Resume
}

func NewQueryResume(r *resume.Resume, log *zap.Logger) *QueryResume {
	return &QueryResume{
		definition: definition{
			name: NameQueryResume,
			desc: "Query the applicant's resume for the section needed to answer a form field.",
			params: map[string]*schema.ParameterInfo{
				"query": {
					Type:     schema.String,
					Desc:     "The resume section to retrieve",
					Enum:     slices.Clone(resume.Topics),
					Required: true,
				},
			},
			logger: log,
		},
		resume: r,
	}
}

func (q *QueryResume) InvokableRun(ctx context.Context, args string, _ ...tool.Option) (string, error) {
	return invoke(ctx, q.definition, args, q.run)
}

func (q *QueryResume) run(_ context.Context, req QueryResumeRequest) (Result, error) {
	if q.resume == nil {
		return Result{}, ErrNoResume
	}
	return Success(q.resume.Query(req.Query)), nil
}
