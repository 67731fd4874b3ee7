package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/careerguide/careerguide/internal/coach"
	"github.com/careerguide/careerguide/internal/content"
	"github.com/careerguide/careerguide/internal/extract"
	"github.com/careerguide/careerguide/internal/output"
	"github.com/careerguide/careerguide/internal/prompt"
	"github.com/careerguide/careerguide/internal/recommend"
	"github.com/spf13/cobra"
)

const defaultUserID = "default"

var bridgeModes = []string{
	"decide-role", "get-question", "score-answer", "get-final-result",
	"reset-interview", "recommend", "generate",
}

// bridgeRequest is the union of every mode's input fields
type bridgeRequest struct {
	UserID        string      `json:"user_id"`
	UserMessage   string      `json:"user_message"`
	ResumeData    *resumeData `json:"resume_data"`
	ResumeSummary string      `json:"resume_summary"`
	TargetRole    string      `json:"target_role"`
	LastAnswer    string      `json:"last_answer"`
	Answer        string      `json:"answer"`
	ResumeText    string      `json:"resume_text"`
	ResumePath    string      `json:"resume_path"`
	JDText        string      `json:"jd_text"`
	Goal          string      `json:"goal"`
	Entity        string      `json:"entity"`
	Purpose       string      `json:"purpose"`
}

func (r *bridgeRequest) user() string {
	if r.UserID == "" {
		return defaultUserID
	}
	return r.UserID
}

// resumeData is the analysis result a caller passes back to the coach
type resumeData struct {
	Goal           string    `json:"goal"`
	FitScore       percent   `json:"fit_score"`
	AlternateRoles []altRole `json:"alternate_roles"`
}

type altRole struct {
	Role  string  `json:"role"`
	Score float64 `json:"score"`
}

func (d *resumeData) context() *prompt.ResumeContext {
	if d == nil {
		return nil
	}
	rc := &prompt.ResumeContext{Goal: d.Goal, FitScore: int(d.FitScore)}
	for _, alt := range d.AlternateRoles {
		rc.AlternateRoles = append(rc.AlternateRoles, prompt.AlternateRole{Role: alt.Role, Score: alt.Score})
	}
	return rc
}

// percent accepts 60, 60.4 or "60%"
type percent int

func (p *percent) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*p = percent(n + 0.5)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("fit_score: expected number or percentage string")
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" || strings.EqualFold(s, "N/A") {
		*p = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("fit_score: %w", err)
	}
	*p = percent(f + 0.5)
	return nil
}

// bridge serves one request per process for the calling application
type bridge struct {
	coach       *coach.Coach
	interviewer *coach.Interviewer
	recommend   func(ctx context.Context, in recommend.Input) (*recommend.Report, error)
	generate    func(ctx context.Context, entity string, purpose content.Purpose) (*content.Payload, error)
}

// handle dispatches one request and returns the JSON document to write
func (b *bridge) handle(ctx context.Context, mode string, req *bridgeRequest) (any, error) {
	switch mode {
	case "decide-role":
		if req.UserID == "" || strings.TrimSpace(req.UserMessage) == "" {
			return nil, errors.New("Missing 'user_id' or 'user_message' in payload.")
		}
		reply, err := b.coach.Reply(ctx, req.UserID, req.UserMessage, req.ResumeData.context())
		if err != nil {
			return nil, err
		}
		return map[string]string{"response": reply}, nil

	case "get-question":
		if req.ResumeSummary == "" || req.TargetRole == "" {
			return nil, errors.New("Missing 'resume_summary' or 'target_role' in payload.")
		}
		q, err := b.interviewer.NextQuestion(ctx, req.user(), req.ResumeSummary, req.TargetRole, req.LastAnswer)
		if err != nil {
			return nil, err
		}
		return map[string]string{"question": q}, nil

	case "score-answer":
		if req.Answer == "" || req.TargetRole == "" {
			return nil, errors.New("Missing 'answer' or 'target_role' in payload.")
		}
		return b.interviewer.Score(ctx, req.user(), req.Answer, req.TargetRole)

	case "get-final-result":
		result, err := b.interviewer.FinalResult(ctx, req.user())
		if err != nil {
			return nil, err
		}
		return map[string]string{"result": result}, nil

	case "reset-interview":
		if err := b.interviewer.Reset(ctx, req.user()); err != nil {
			return nil, err
		}
		return map[string]string{"response": coach.ResetInterview}, nil

	case "recommend":
		resumeText := req.ResumeText
		if resumeText == "" && req.ResumePath != "" {
			text, err := extract.FromFile(req.ResumePath)
			if err != nil {
				return nil, err
			}
			resumeText = text
		}
		return b.recommend(ctx, recommend.Input{ResumeText: resumeText, JDText: req.JDText, Goal: req.Goal})

	case "generate":
		if strings.TrimSpace(req.Entity) == "" {
			return nil, errors.New("Missing 'entity' in payload.")
		}
		purpose := content.LearningAndProjects
		if req.Purpose != "" {
			p, err := content.ParsePurpose(req.Purpose)
			if err != nil {
				return nil, err
			}
			purpose = p
		}
		return b.generate(ctx, req.Entity, purpose)
	}
	return nil, fmt.Errorf("Invalid mode: %s", mode)
}

// serveBridge reads one request from r and writes exactly one JSON document
// to w. Request failures are reported in the document, not as an error.
func serveBridge(ctx context.Context, mode string, r io.Reader, w io.Writer, open func(mode string) (*bridge, func(), error)) error {
	var req bridgeRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return output.WriteJSON(w, map[string]string{"error": "Failed to parse stdin input: " + err.Error()})
	}

	b, closeFn, err := open(mode)
	if err != nil {
		return output.WriteJSON(w, map[string]string{"error": err.Error()})
	}
	defer closeFn()

	resp, err := b.handle(ctx, mode, &req)
	if err != nil {
		return output.WriteJSON(w, map[string]string{"error": err.Error()})
	}
	return output.WriteJSON(w, resp)
}

// openBridge wires only what mode needs: the session store and local chat
// model for the coach modes, the provider stack for the generation modes.
func openBridge(ctx context.Context) func(mode string) (*bridge, func(), error) {
	return func(mode string) (*bridge, func(), error) {
		switch mode {
		case "recommend", "generate":
			rt, err := newRuntime(ctx)
			if err != nil {
				return nil, nil, err
			}
			p, err := rt.pipeline()
			if err != nil {
				return nil, nil, err
			}
			return &bridge{recommend: p.Run, generate: rt.gen.Generate}, func() {}, nil

		case "decide-role", "get-question", "score-answer", "get-final-result", "reset-interview":
			cfg, err := loadConfig()
			if err != nil {
				return nil, nil, err
			}
			c, iv, store, err := openCoach(cfg, 0)
			if err != nil {
				return nil, nil, err
			}
			return &bridge{coach: c, interviewer: iv}, func() { _ = store.Close() }, nil
		}
		return nil, nil, fmt.Errorf("Invalid mode: %s", mode)
	}
}

func bridgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bridge <mode>",
		Short: "Serve one JSON request from stdin",
		Long: fmt.Sprintf(`Read one JSON request from stdin and write one JSON response to stdout.
Failures are reported as {"error": "..."} and the exit status stays zero.

Modes: %s

Example:
  echo '{"user_id": "42", "user_message": "Should I learn Go?"}' | careerguide bridge decide-role`,
			strings.Join(bridgeModes, ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveBridge(cmd.Context(), args[0], cmd.InOrStdin(), cmd.OutOrStdout(), openBridge(cmd.Context()))
		},
	}
}
