package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"lexline/internal/domain"
	"lexline/internal/engine"
	"lexline/internal/repo"
)

var mutationErrors = []int{
	http.StatusBadRequest,
	http.StatusUnauthorized,
	http.StatusNotFound,
	http.StatusConflict,
	http.StatusUnprocessableEntity,
	http.StatusInternalServerError,
}

type idPath struct {
	ID string `path:"id"`
}

func registerExecutions(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-execution",
		Method:        http.MethodPost,
		Path:          "/executions",
		Summary:       "File an execution request",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateExecutionRequest `json:"body"`
	}) (*struct {
		Body ExecutionResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		opts := engine.ExecutionCreateOptions{
			ID:             stringOrEmpty(input.Body.ID),
			ClientID:       input.Body.ClientID,
			ClientName:     input.Body.ClientName,
			ContactNumber:  stringOrEmpty(input.Body.ContactNumber),
			OpponentName:   input.Body.OpponentName,
			Type:           input.Body.Type,
			ClaimAmount:    input.Body.ClaimAmount,
			CourtName:      stringOrEmpty(input.Body.CourtName),
			CircuitName:    stringOrEmpty(input.Body.CircuitName),
			SubmissionDate: stringOrEmpty(input.Body.SubmissionDate),
			AuditStatus:    stringOrEmpty(input.Body.AuditStatus),
			Draft:          input.Body.Draft,
			ActorID:        actorID,
		}
		req, err := e.CreateExecution(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ExecutionResponse `json:"body"`
		}{Body: req}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-executions",
		Method:      http.MethodGet,
		Path:        "/executions",
		Summary:     "List execution requests",
	}, func(ctx context.Context, input *struct {
		Status string `query:"status"`
		Type   string `query:"type"`
		Client string `query:"client"`
		Limit  int    `query:"limit"`
	}) (*struct {
		Body []ExecutionResponse `json:"body"`
	}, error) {
		list, err := e.Repo.ListExecutions(ctx, repo.ExecutionFilters{
			Status: input.Status,
			Type:   input.Type,
			Client: input.Client,
			Limit:  input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []ExecutionResponse `json:"body"`
		}{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-execution",
		Method:      http.MethodGet,
		Path:        "/executions/{id}",
		Summary:     "Get an execution request",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct {
		Body ExecutionResponse `json:"body"`
	}, error) {
		req, err := e.Repo.GetExecution(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ExecutionResponse `json:"body"`
		}{Body: req}, nil
	})

	registerExecutionEvent := func(opID, pathSuffix, summary string, apply func(ctx context.Context, id, actorID string) (domain.ExecutionRequest, error)) {
		huma.Register(api, huma.Operation{
			OperationID: opID,
			Method:      http.MethodPost,
			Path:        "/executions/{id}/" + pathSuffix,
			Summary:     summary,
			Errors:      mutationErrors,
		}, func(ctx context.Context, input *idPath) (*struct {
			Body ExecutionResponse `json:"body"`
		}, error) {
			actorID, authErr := actorIDFromContext(ctx)
			if authErr != nil {
				return nil, authErr
			}
			req, err := apply(ctx, input.ID, actorID)
			if err != nil {
				return nil, handleError(err)
			}
			return &struct {
				Body ExecutionResponse `json:"body"`
			}{Body: req}, nil
		})
	}

	registerExecutionEvent("register-execution", "register", "Register a draft execution", e.RegisterExecution)
	registerExecutionEvent("reactivate-execution", "reactivate", "Reactivate a suspended execution", e.ReactivateExecution)
	registerExecutionEvent("complete-execution", "complete", "Mark a direct or personal execution ready to close", e.CompleteExecution)

	huma.Register(api, huma.Operation{
		OperationID:   "add-decision",
		Method:        http.MethodPost,
		Path:          "/executions/{id}/decisions",
		Summary:       "Record a judicial decision",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		ID   string             `path:"id"`
		Body AddDecisionRequest `json:"body"`
	}) (*struct {
		Body ExecutionResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		req, err := e.AddDecision(ctx, input.ID, input.Body.Type, stringOrEmpty(input.Body.CustomType), stringOrEmpty(input.Body.Date), actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ExecutionResponse `json:"body"`
		}{Body: req}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-collection",
		Method:        http.MethodPost,
		Path:          "/executions/{id}/collections",
		Summary:       "Record a collected amount",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		ID   string               `path:"id"`
		Body AddCollectionRequest `json:"body"`
	}) (*struct {
		Body ExecutionResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		req, err := e.AddCollection(ctx, input.ID, input.Body.Amount, stringOrEmpty(input.Body.Date),
			stringOrEmpty(input.Body.Method), stringOrEmpty(input.Body.Reference), actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ExecutionResponse `json:"body"`
		}{Body: req}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "suspend-execution",
		Method:      http.MethodPost,
		Path:        "/executions/{id}/suspend",
		Summary:     "Suspend an execution",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ID   string                  `path:"id"`
		Body SuspendExecutionRequest `json:"body"`
	}) (*struct {
		Body ExecutionResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		req, err := e.SuspendExecution(ctx, input.ID, input.Body.Note, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ExecutionResponse `json:"body"`
		}{Body: req}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "close-execution",
		Method:      http.MethodPost,
		Path:        "/executions/{id}/close",
		Summary:     "Close an execution awaiting closure",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ID   string                `path:"id"`
		Body CloseExecutionRequest `json:"body"`
	}) (*struct {
		Body ExecutionResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		req, err := e.CloseExecution(ctx, input.ID, input.Body.Reason, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ExecutionResponse `json:"body"`
		}{Body: req}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "scan-deadlines",
		Method:      http.MethodPost,
		Path:        "/executions/scan",
		Summary:     "Run a deadline escalation sweep now",
		Errors:      mutationErrors,
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]any `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		escalated, err := e.EscalateOverdue(ctx, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		if escalated == nil {
			escalated = []string{}
		}
		return &struct {
			Body map[string]any `json:"body"`
		}{Body: map[string]any{"escalated": escalated}}, nil
	})
}

func registerEstates(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-estate",
		Method:        http.MethodPost,
		Path:          "/estates",
		Summary:       "Open an estate liquidation case",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateEstateRequest `json:"body"`
	}) (*struct {
		Body EstateResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		heirs := make([]domain.Heir, 0, len(input.Body.Heirs))
		for _, h := range input.Body.Heirs {
			heirs = append(heirs, domain.Heir{
				Name:       h.Name,
				IdentityNo: h.IdentityNo,
				BirthDate:  stringOrEmpty(h.BirthDate),
				Phone:      stringOrEmpty(h.Phone),
				IBAN:       h.IBAN,
			})
		}
		est, err := e.CreateEstate(ctx, engine.EstateCreateOptions{
			ID:           stringOrEmpty(input.Body.ID),
			DeceasedName: input.Body.DeceasedName,
			Method:       input.Body.Method,
			Heirs:        heirs,
			ActorID:      actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EstateResponse `json:"body"`
		}{Body: est}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-estates",
		Method:      http.MethodGet,
		Path:        "/estates",
		Summary:     "List estates",
	}, func(ctx context.Context, input *struct {
		Status string `query:"status"`
		Method string `query:"method"`
		Limit  int    `query:"limit"`
	}) (*struct {
		Body []EstateResponse `json:"body"`
	}, error) {
		list, err := e.Repo.ListEstates(ctx, repo.EstateFilters{
			Status: input.Status,
			Method: input.Method,
			Limit:  input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []EstateResponse `json:"body"`
		}{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-estate",
		Method:      http.MethodGet,
		Path:        "/estates/{id}",
		Summary:     "Get an estate with heirs, assets and linked tasks",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct {
		Body EstateResponse `json:"body"`
	}, error) {
		est, err := e.Repo.GetEstate(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EstateResponse `json:"body"`
		}{Body: est}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-estate-asset",
		Method:        http.MethodPost,
		Path:          "/estates/{id}/assets",
		Summary:       "Register an asset under liquidation",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		ID   string          `path:"id"`
		Body AddAssetRequest `json:"body"`
	}) (*struct {
		Body AssetResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		ownership := 100.0
		if input.Body.OwnershipPercent != nil {
			ownership = *input.Body.OwnershipPercent
		}
		asset, err := e.AddEstateAsset(ctx, engine.AssetCreateOptions{
			EstateID:         input.ID,
			Type:             input.Body.Type,
			Name:             input.Body.Name,
			OwnershipPercent: ownership,
			DetailsJSON:      stringOrEmpty(input.Body.DetailsJSON),
			Requirements:     input.Body.Requirements,
			ActorID:          actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body AssetResponse `json:"body"`
		}{Body: asset}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "close-liquidation-task",
		Method:      http.MethodPost,
		Path:        "/liquidation-tasks/{id}/close",
		Summary:     "Close a liquidation task",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *idPath) (*struct {
		Body LiquidationTaskResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.CloseLiquidationTask(ctx, input.ID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body LiquidationTaskResponse `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "close-estate",
		Method:      http.MethodPost,
		Path:        "/estates/{id}/close",
		Summary:     "Close an estate once every asset is completed",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *idPath) (*struct {
		Body EstateResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		est, err := e.CloseEstate(ctx, input.ID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EstateResponse `json:"body"`
		}{Body: est}, nil
	})
}

func registerIntakes(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-intake",
		Method:        http.MethodPost,
		Path:          "/intake",
		Summary:       "Open a client-intake assignment",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateIntakeRequest `json:"body"`
	}) (*struct {
		Body IntakeResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.CreateIntake(ctx, engine.IntakeCreateOptions{
			ID:           stringOrEmpty(input.Body.ID),
			Department:   input.Body.Department,
			ClientName:   input.Body.ClientName,
			ClientPhone:  stringOrEmpty(input.Body.ClientPhone),
			Subject:      input.Body.Subject,
			NextStep:     stringOrEmpty(input.Body.NextStep),
			DeadlineDate: stringOrEmpty(input.Body.DeadlineDate),
			ActorID:      actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body IntakeResponse `json:"body"`
		}{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-intake",
		Method:      http.MethodGet,
		Path:        "/intake",
		Summary:     "List intake assignments",
	}, func(ctx context.Context, input *struct {
		Department string `query:"department"`
		Status     string `query:"status"`
		Employee   string `query:"employee"`
		Limit      int    `query:"limit"`
	}) (*struct {
		Body []IntakeResponse `json:"body"`
	}, error) {
		list, err := e.Repo.ListIntakes(ctx, repo.IntakeFilters{
			Department: input.Department,
			Status:     input.Status,
			Employee:   input.Employee,
			Limit:      input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []IntakeResponse `json:"body"`
		}{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-intake",
		Method:      http.MethodGet,
		Path:        "/intake/{id}",
		Summary:     "Get an intake assignment",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct {
		Body IntakeResponse `json:"body"`
	}, error) {
		a, err := e.Repo.GetIntake(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body IntakeResponse `json:"body"`
		}{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "accept-intake",
		Method:      http.MethodPost,
		Path:        "/intake/{id}/accept",
		Summary:     "Accept an intake assignment",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ID   string                  `path:"id"`
		Body AcceptAssignmentRequest `json:"body"`
	}) (*struct {
		Body IntakeResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.AcceptIntake(ctx, input.ID, input.Body.EmployeeID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body IntakeResponse `json:"body"`
		}{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "advance-intake",
		Method:      http.MethodPost,
		Path:        "/intake/{id}/advance",
		Summary:     "Advance an intake assignment one stage",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ID   string               `path:"id"`
		Body AdvanceIntakeRequest `json:"body"`
	}) (*struct {
		Body IntakeResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.AdvanceIntake(ctx, input.ID, stringOrEmpty(input.Body.NextStep), stringOrEmpty(input.Body.DeadlineDate), actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body IntakeResponse `json:"body"`
		}{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "intake-missing-info",
		Method:      http.MethodPost,
		Path:        "/intake/{id}/missing-info",
		Summary:     "Park an intake assignment on missing information",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ID   string             `path:"id"`
		Body MissingInfoRequest `json:"body"`
	}) (*struct {
		Body IntakeResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.IntakeMissingInfo(ctx, input.ID, input.Body.MissingInfo, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body IntakeResponse `json:"body"`
		}{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "close-intake",
		Method:      http.MethodPost,
		Path:        "/intake/{id}/close",
		Summary:     "Close an intake assignment",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ID   string             `path:"id"`
		Body CloseIntakeRequest `json:"body"`
	}) (*struct {
		Body IntakeResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.CloseIntake(ctx, input.ID, engine.IntakeOutcome{
			Result:          input.Body.Result,
			ContractID:      stringOrEmpty(input.Body.ContractID),
			RejectionReason: stringOrEmpty(input.Body.RejectionReason),
			ActorID:         actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body IntakeResponse `json:"body"`
		}{Body: a}, nil
	})
}

func registerDepts(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-assignment",
		Method:        http.MethodPost,
		Path:          "/assignments",
		Summary:       "Hand work to a department",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateDeptRequest `json:"body"`
	}) (*struct {
		Body DeptResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		weight := 0
		if input.Body.Weight != nil {
			weight = *input.Body.Weight
		}
		a, err := e.CreateDept(ctx, engine.DeptCreateOptions{
			ID:           stringOrEmpty(input.Body.ID),
			Department:   input.Body.Department,
			ContractRef:  stringOrEmpty(input.Body.ContractRef),
			ClientRef:    stringOrEmpty(input.Body.ClientRef),
			TaskType:     input.Body.TaskType,
			Weight:       weight,
			Subject:      input.Body.Subject,
			NextStep:     stringOrEmpty(input.Body.NextStep),
			DeadlineDate: stringOrEmpty(input.Body.DeadlineDate),
			ActorID:      actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DeptResponse `json:"body"`
		}{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-assignments",
		Method:      http.MethodGet,
		Path:        "/assignments",
		Summary:     "List department assignments",
	}, func(ctx context.Context, input *struct {
		Department string `query:"department"`
		Status     string `query:"status"`
		Employee   string `query:"employee"`
		Limit      int    `query:"limit"`
	}) (*struct {
		Body []DeptResponse `json:"body"`
	}, error) {
		list, err := e.Repo.ListDepts(ctx, repo.DeptFilters{
			Department: input.Department,
			Status:     input.Status,
			Employee:   input.Employee,
			Limit:      input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []DeptResponse `json:"body"`
		}{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-assignment",
		Method:      http.MethodGet,
		Path:        "/assignments/{id}",
		Summary:     "Get a department assignment",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct {
		Body DeptResponse `json:"body"`
	}, error) {
		a, err := e.Repo.GetDept(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DeptResponse `json:"body"`
		}{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "accept-assignment",
		Method:      http.MethodPost,
		Path:        "/assignments/{id}/accept",
		Summary:     "Accept a department assignment",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ID   string                  `path:"id"`
		Body AcceptAssignmentRequest `json:"body"`
	}) (*struct {
		Body DeptResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.AcceptDept(ctx, input.ID, input.Body.EmployeeID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DeptResponse `json:"body"`
		}{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "assignment-missing-info",
		Method:      http.MethodPost,
		Path:        "/assignments/{id}/missing-info",
		Summary:     "Park a department assignment on missing information",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ID   string             `path:"id"`
		Body MissingInfoRequest `json:"body"`
	}) (*struct {
		Body DeptResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.DeptMissingInfo(ctx, input.ID, input.Body.MissingInfo, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DeptResponse `json:"body"`
		}{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "resume-assignment",
		Method:      http.MethodPost,
		Path:        "/assignments/{id}/resume",
		Summary:     "Resume a parked department assignment",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *idPath) (*struct {
		Body DeptResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.ResumeDept(ctx, input.ID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DeptResponse `json:"body"`
		}{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "close-assignment",
		Method:      http.MethodPost,
		Path:        "/assignments/{id}/close",
		Summary:     "Close a department assignment",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ID   string           `path:"id"`
		Body CloseDeptRequest `json:"body"`
	}) (*struct {
		Body DeptResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		a, err := e.CloseDept(ctx, input.ID, input.Body.Result, stringOrEmpty(input.Body.Reason), actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DeptResponse `json:"body"`
		}{Body: a}, nil
	})
}

func registerTasks(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create an operational task",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateTaskRequest `json:"body"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		load := 0
		if input.Body.Load != nil {
			load = *input.Body.Load
		}
		t, err := e.CreateTask(ctx, engine.TaskCreateOptions{
			ID:               stringOrEmpty(input.Body.ID),
			Name:             input.Body.Name,
			Origin:           input.Body.Origin,
			ReferenceID:      stringOrEmpty(input.Body.ReferenceID),
			ReferenceLabel:   stringOrEmpty(input.Body.ReferenceLabel),
			ExecutorID:       input.Body.ExecutorID,
			ReviewerID:       stringOrEmpty(input.Body.ReviewerID),
			Load:             load,
			NextStep:         stringOrEmpty(input.Body.NextStep),
			NextStepDate:     stringOrEmpty(input.Body.NextStepDate),
			RequiresApproval: input.Body.RequiresApproval,
			ActorID:          actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List operational tasks",
	}, func(ctx context.Context, input *struct {
		Status   string `query:"status"`
		Origin   string `query:"origin"`
		Executor string `query:"executor"`
		Limit    int    `query:"limit"`
	}) (*struct {
		Body []TaskResponse `json:"body"`
	}, error) {
		list, err := e.Repo.ListTasks(ctx, repo.TaskFilters{
			Status:   input.Status,
			Origin:   input.Origin,
			Executor: input.Executor,
			Limit:    input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []TaskResponse `json:"body"`
		}{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}",
		Summary:     "Get a task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		t, err := e.Repo.GetTask(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-task-status",
		Method:      http.MethodPost,
		Path:        "/tasks/{id}/status",
		Summary:     "Move a task between working statuses",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ID   string               `path:"id"`
		Body SetTaskStatusRequest `json:"body"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.SetTaskStatus(ctx, input.ID, input.Body.Status, stringOrEmpty(input.Body.NextStep), stringOrEmpty(input.Body.NextStepDate), actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{id}/complete",
		Summary:     "Complete a task with its result",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ID   string              `path:"id"`
		Body CompleteTaskRequest `json:"body"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.CompleteTask(ctx, input.ID, input.Body.Result, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{id}/approve",
		Summary:     "Approve a completed task",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *idPath) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.ApproveTask(ctx, input.ID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "return-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{id}/return",
		Summary:     "Return a completed task to its executor",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ID   string            `path:"id"`
		Body ReturnTaskRequest `json:"body"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.ReturnTask(ctx, input.ID, input.Body.Note, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: t}, nil
	})
}

func registerPipeline(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-pipeline-item",
		Method:        http.MethodPost,
		Path:          "/pipeline",
		Summary:       "Propose a business-development opportunity",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body CreatePipelineItemRequest `json:"body"`
	}) (*struct {
		Body PipelineItemResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.CreatePipelineItem(ctx, engine.PipelineCreateOptions{
			ID:           stringOrEmpty(input.Body.ID),
			Name:         input.Body.Name,
			Entity:       input.Body.Entity,
			ProposalDate: stringOrEmpty(input.Body.ProposalDate),
			ReviewerID:   input.Body.ReviewerID,
			ActorID:      actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body PipelineItemResponse `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-pipeline",
		Method:      http.MethodGet,
		Path:        "/pipeline",
		Summary:     "List pipeline items",
	}, func(ctx context.Context, input *struct {
		Status string `query:"status"`
		Stage  string `query:"stage"`
		Limit  int    `query:"limit"`
	}) (*struct {
		Body []PipelineItemResponse `json:"body"`
	}, error) {
		list, err := e.Repo.ListPipelineItems(ctx, repo.PipelineFilters{
			Status: input.Status,
			Stage:  input.Stage,
			Limit:  input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []PipelineItemResponse `json:"body"`
		}{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-pipeline-item",
		Method:      http.MethodGet,
		Path:        "/pipeline/{id}",
		Summary:     "Get a pipeline item",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct {
		Body PipelineItemResponse `json:"body"`
	}, error) {
		p, err := e.Repo.GetPipelineItem(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body PipelineItemResponse `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "pipeline-reviewer-decision",
		Method:      http.MethodPost,
		Path:        "/pipeline/{id}/reviewer-decision",
		Summary:     "Record the reviewer's gate decision",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ID   string                  `path:"id"`
		Body ReviewerDecisionRequest `json:"body"`
	}) (*struct {
		Body PipelineItemResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.ReviewerDecision(ctx, input.ID, input.Body.Opinion,
			stringOrEmpty(input.Body.AssigneeType), stringOrEmpty(input.Body.AssigneeID), actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body PipelineItemResponse `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "pipeline-assignee-decision",
		Method:      http.MethodPost,
		Path:        "/pipeline/{id}/assignee-decision",
		Summary:     "Record the assignee's gate decision",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ID   string                  `path:"id"`
		Body AssigneeDecisionRequest `json:"body"`
	}) (*struct {
		Body PipelineItemResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.AssigneeDecision(ctx, input.ID, input.Body.Opinion, stringOrEmpty(input.Body.Reason), actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body PipelineItemResponse `json:"body"`
		}{Body: p}, nil
	})

	registerPipelineEvent := func(opID, pathSuffix, summary string, apply func(ctx context.Context, id, actorID string) (domain.PipelineItem, error)) {
		huma.Register(api, huma.Operation{
			OperationID: opID,
			Method:      http.MethodPost,
			Path:        "/pipeline/{id}/" + pathSuffix,
			Summary:     summary,
			Errors:      mutationErrors,
		}, func(ctx context.Context, input *idPath) (*struct {
			Body PipelineItemResponse `json:"body"`
		}, error) {
			actorID, authErr := actorIDFromContext(ctx)
			if authErr != nil {
				return nil, authErr
			}
			p, err := apply(ctx, input.ID, actorID)
			if err != nil {
				return nil, handleError(err)
			}
			return &struct {
				Body PipelineItemResponse `json:"body"`
			}{Body: p}, nil
		})
	}

	registerPipelineEvent("escalate-pipeline-item", "escalate", "Escalate past the assignee gate", e.EscalatePipelineItem)
	registerPipelineEvent("advance-pipeline-item", "advance", "Advance to the next proposal stage", e.AdvancePipelineItem)
	registerPipelineEvent("archive-pipeline-item", "archive", "Archive an item from follow-up", e.ArchivePipelineItem)
}

func registerProjects(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Open an engagement",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateProjectRequest `json:"body"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.CreateProject(ctx, engine.ProjectCreateOptions{
			ID:             stringOrEmpty(input.Body.ID),
			Name:           input.Body.Name,
			ManagerID:      input.Body.ManagerID,
			ClientName:     input.Body.ClientName,
			ContractStatus: input.Body.ContractStatus,
			ContractNo:     stringOrEmpty(input.Body.ContractNo),
			ActorID:        actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List engagements",
	}, func(ctx context.Context, input *struct {
		Status   string `query:"status"`
		FollowUp string `query:"follow_up"`
		Limit    int    `query:"limit"`
	}) (*struct {
		Body []ProjectResponse `json:"body"`
	}, error) {
		list, err := e.Repo.ListProjects(ctx, repo.ProjectFilters{
			Status:   input.Status,
			FollowUp: input.FollowUp,
			Limit:    input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []ProjectResponse `json:"body"`
		}{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{id}",
		Summary:     "Get an engagement",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		p, err := e.Repo.GetProject(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-project-contract",
		Method:      http.MethodPost,
		Path:        "/projects/{id}/contract",
		Summary:     "Record the signed contract number",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ID   string                    `path:"id"`
		Body SetProjectContractRequest `json:"body"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.SetProjectContract(ctx, input.ID, input.Body.ContractNo, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "close-project",
		Method:      http.MethodPost,
		Path:        "/projects/{id}/close",
		Summary:     "Close an engagement",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *idPath) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.CloseProject(ctx, input.ID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: p}, nil
	})
}

func registerLog(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-log",
		Method:      http.MethodGet,
		Path:        "/log",
		Summary:     "List activity-log entries, newest first",
	}, func(ctx context.Context, input *struct {
		EntityKind string `query:"entity_kind"`
		EntityID   string `query:"entity_id"`
		Actor      string `query:"actor"`
		Limit      int    `query:"limit"`
	}) (*struct {
		Body []LogEntryResponse `json:"body"`
	}, error) {
		list, err := e.Repo.ListLog(ctx, repo.LogFilters{
			EntityKind: input.EntityKind,
			EntityID:   input.EntityID,
			ActorID:    input.Actor,
			Limit:      input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []LogEntryResponse `json:"body"`
		}{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "entity-log",
		Method:      http.MethodGet,
		Path:        "/log/{entity_kind}/{entity_id}",
		Summary:     "Full activity trail for one entity",
	}, func(ctx context.Context, input *struct {
		EntityKind string `path:"entity_kind"`
		EntityID   string `path:"entity_id"`
	}) (*struct {
		Body []LogEntryResponse `json:"body"`
	}, error) {
		list, err := e.Repo.EntityLog(ctx, input.EntityKind, input.EntityID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []LogEntryResponse `json:"body"`
		}{Body: list}, nil
	})
}
