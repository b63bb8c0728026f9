package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"docchat-be/internal/constant"
	"docchat-be/internal/dto"
	"docchat-be/internal/entity"
	"docchat-be/internal/pkg/logger"
	"docchat-be/internal/pkg/mailer"
	"docchat-be/internal/repository/memory"
	"docchat-be/internal/repository/specification"
	"docchat-be/internal/repository/unitofwork"
	"docchat-be/pkg/embedding"
	"docchat-be/pkg/events"
	"docchat-be/pkg/llm"
	"docchat-be/pkg/rag/answer"
	"docchat-be/pkg/rag/collection"
	"docchat-be/pkg/rag/engine"
	"docchat-be/pkg/rag/retrieval"
	"docchat-be/pkg/store"

	"github.com/google/uuid"
)

var (
	ErrChatSessionNotFound    = errors.New("chat session not found")
	ErrCollectionNotAllowed   = errors.New("collection is not available for this user")
	supportAcknowledgmentText = "Thanks, your request has been forwarded to our support team. We will get back to you by email."
)

// IStreamPublisher pushes turn progress events to a connected user.
type IStreamPublisher interface {
	PublishToUser(userID uuid.UUID, event dto.StreamEvent)
}

// IEventPublisher emits domain events to the message bus.
type IEventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IChatService interface {
	StartSession(ctx context.Context, userID uuid.UUID, request *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetSessions(ctx context.Context, userID uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetHistory(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	SendMessage(ctx context.Context, userID uuid.UUID, request *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	UpdateSettings(ctx context.Context, userID uuid.UUID, request *dto.UpdateSettingsRequest) (*dto.UpdateSettingsResponse, error)
	DeleteSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) error
}

type chatService struct {
	uowFactory        unitofwork.RepositoryFactory
	sessions          *memory.SessionRepository
	engine            *engine.Engine
	embeddingProvider embedding.EmbeddingProvider
	llmProvider       llm.LLMProvider
	emailService      mailer.IEmailService
	streams           IStreamPublisher
	eventPublisher    IEventPublisher
	publisherService  IPublisherService
	ragLogger         *log.Logger
	logger            logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	sessions *memory.SessionRepository,
	eng *engine.Engine,
	embeddingProvider embedding.EmbeddingProvider,
	llmProvider llm.LLMProvider,
	emailService mailer.IEmailService,
	streams IStreamPublisher,
	eventPublisher IEventPublisher,
	publisherService IPublisherService,
	ragLogger *log.Logger,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:        uowFactory,
		sessions:          sessions,
		engine:            eng,
		embeddingProvider: embeddingProvider,
		llmProvider:       llmProvider,
		emailService:      emailService,
		streams:           streams,
		eventPublisher:    eventPublisher,
		publisherService:  publisherService,
		ragLogger:         ragLogger,
		logger:            log,
	}
}

// allowedCollections resolves the collections a user may query from their
// identity groups.
func (s *chatService) allowedCollections(user *entity.User) []string {
	return collection.Resolve(user.Groups)
}

// buildStoreSession constructs the in-memory session state: both vector
// store handles and the answer pipeline, built once and reused for every
// turn in the session.
func (s *chatService) buildStoreSession(ctx context.Context, chatSession *entity.ChatSession) *store.Session {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	cfg := retrieval.DefaultConfig()

	return &store.Session{
		ID:         chatSession.Id.String(),
		UserID:     chatSession.UserId.String(),
		Collection: chatSession.Collection,
		Default:    retrieval.NewCollectionRetriever(constant.DefaultCollection, s.embeddingProvider, uow, cfg, s.ragLogger),
		Active:     retrieval.NewCollectionRetriever(chatSession.Collection, s.embeddingProvider, uow, cfg, s.ragLogger),
		Pipeline:   answer.NewStructuredPipeline(s.llmProvider, s.ragLogger),
	}
}

// resumeSession returns the cached in-memory session or rebuilds it from
// the persisted transcript after an eviction or restart.
func (s *chatService) resumeSession(ctx context.Context, chatSession *entity.ChatSession) (*store.Session, error) {
	if cached, ok := s.sessions.Get(chatSession.Id.String()); ok {
		return cached, nil
	}

	session := s.buildStoreSession(ctx, chatSession)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: chatSession.Id},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}
	for _, msg := range messages {
		switch msg.Role {
		case constant.ChatMessageRoleUser:
			session.AppendUserTurn(msg.Content)
		case constant.ChatMessageRoleModel:
			session.AppendBotTurn(answer.Serialize(&answer.AnswerWithSources{
				Answer:  msg.Content,
				Sources: msg.Sources,
			}))
		}
	}

	s.sessions.Save(session)
	s.logger.Info("Chat", "Session rebuilt from transcript", map[string]interface{}{
		"chat_session_id": chatSession.Id,
		"turns":           len(messages),
	})
	return session, nil
}

func (s *chatService) findOwnedSession(ctx context.Context, uow unitofwork.UnitOfWork, userID, sessionID uuid.UUID) (*entity.ChatSession, error) {
	chatSession, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionID},
		specification.UserOwnedBy{UserID: userID},
	)
	if err != nil {
		return nil, err
	}
	if chatSession == nil || chatSession.IsDeleted {
		return nil, ErrChatSessionNotFound
	}
	return chatSession, nil
}

func (s *chatService) StartSession(ctx context.Context, userID uuid.UUID, request *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userID})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}

	collections := s.allowedCollections(user)

	// The active collection starts at the user's primary group unless the
	// request preselects one of the allowed collections. Users without any
	// collection group fall back to the shared collection.
	active := constant.DefaultCollection
	if len(collections) > 0 {
		active = collections[collection.InitialIndex(collections, user.PrimaryGroup)]
	}
	if request.Collection != "" {
		if !contains(collections, request.Collection) {
			return nil, ErrCollectionNotAllowed
		}
		active = request.Collection
	}

	chatSession := &entity.ChatSession{
		Id:         uuid.New(),
		UserId:     userID,
		Title:      "New Chat",
		Collection: active,
		CreatedAt:  time.Now(),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	if err := uow.ChatSessionRepository().Create(ctx, chatSession); err != nil {
		uow.Rollback()
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.sessions.Save(s.buildStoreSession(ctx, chatSession))

	if err := s.eventPublisher.Publish(ctx, events.NewChatSessionStarted(chatSession.Id.String(), userID.String(), active)); err != nil {
		s.logger.Warn("Chat", "Failed to publish session started event", map[string]interface{}{"error": err.Error()})
	}

	return &dto.CreateSessionResponse{
		Id:          chatSession.Id,
		Collection:  active,
		Collections: collections,
	}, nil
}

func (s *chatService) GetSessions(ctx context.Context, userID uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userID},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.GetAllSessionsResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, &dto.GetAllSessionsResponse{
			Id:         session.Id,
			Title:      session.Title,
			Collection: session.Collection,
			CreatedAt:  session.CreatedAt,
			UpdatedAt:  session.UpdatedAt,
		})
	}
	return responses, nil
}

func (s *chatService) GetHistory(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.findOwnedSession(ctx, uow, userID, sessionID); err != nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionID},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.GetChatHistoryResponse, 0, len(messages))
	for _, msg := range messages {
		item := &dto.GetChatHistoryResponse{
			Id:        msg.Id,
			Role:      msg.Role,
			Content:   msg.Content,
			Sources:   msg.Sources,
			CreatedAt: msg.CreatedAt,
		}
		if msg.Role == constant.ChatMessageRoleModel {
			attachments, err := uow.ChatAttachmentRepository().FindAll(ctx,
				specification.ByChatMessageID{ChatMessageID: msg.Id},
			)
			if err != nil {
				return nil, err
			}
			for _, a := range attachments {
				item.Attachments = append(item.Attachments, dto.AttachmentDTO{Name: a.Name, Path: a.Path})
			}
		}
		responses = append(responses, item)
	}
	return responses, nil
}

func (s *chatService) SendMessage(ctx context.Context, userID uuid.UUID, request *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	chatSession, err := s.findOwnedSession(ctx, uow, userID, request.ChatSessionId)
	if err != nil {
		return nil, err
	}

	if isSupportRequest(request.Message) {
		return s.handleSupportRequest(ctx, uow, userID, chatSession, request.Message)
	}

	session, err := s.resumeSession(ctx, chatSession)
	if err != nil {
		return nil, err
	}

	turnInput := engine.TurnInput{Question: request.Message}
	if request.ImageBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(request.ImageBase64)
		if err != nil {
			s.streams.PublishToUser(userID, dto.StreamEvent{
				ChatSessionId: chatSession.Id,
				Type:          "error",
				Content:       "invalid image payload",
			})
			return nil, fmt.Errorf("invalid image payload: %w", err)
		}
		turnInput.Image = &engine.ImageInput{
			MimeType: request.ImageMimeType,
			Data:     data,
		}
	}

	hooks := engine.Hooks{
		OnState: func(state engine.TurnState) {
			s.streams.PublishToUser(userID, dto.StreamEvent{
				ChatSessionId: chatSession.Id,
				Type:          "status",
				State:         string(state),
			})
		},
		OnFragment: func(fragment string) error {
			s.streams.PublishToUser(userID, dto.StreamEvent{
				ChatSessionId: chatSession.Id,
				Type:          "token",
				Fragment:      fragment,
			})
			return nil
		},
	}

	result, err := s.engine.RunTurn(ctx, session, turnInput, hooks)
	if err != nil {
		s.streams.PublishToUser(userID, dto.StreamEvent{
			ChatSessionId: chatSession.Id,
			Type:          "error",
			Content:       err.Error(),
		})
		return nil, err
	}
	s.sessions.Save(session)

	// Image descriptions join the active collection so later questions can
	// retrieve what the image showed.
	if result.ImageDescription != "" {
		embedPayload, err := json.Marshal(dto.PublishEmbedDocumentMessage{
			Collection: session.Collection,
			Source:     "image-" + chatSession.Id.String(),
			Content:    result.ImageDescription,
		})
		if err == nil {
			if err := s.publisherService.Publish(ctx, embedPayload); err != nil {
				s.logger.Warn("Chat", "Failed to queue image description", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	sent := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: chatSession.Id,
		Role:          constant.ChatMessageRoleUser,
		Content:       request.Message,
		CreatedAt:     time.Now(),
	}
	reply := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: chatSession.Id,
		Role:          constant.ChatMessageRoleModel,
		Content:       result.Answer,
		Sources:       result.Sources,
		CreatedAt:     time.Now(),
	}

	attachments := make([]*entity.ChatAttachment, 0, len(result.Attachments))
	attachmentDTOs := make([]dto.AttachmentDTO, 0, len(result.Attachments))
	for _, a := range result.Attachments {
		attachments = append(attachments, &entity.ChatAttachment{
			Id:            uuid.New(),
			ChatMessageId: reply.Id,
			Name:          a.Name,
			Path:          a.Path,
			CreatedAt:     time.Now(),
		})
		attachmentDTOs = append(attachmentDTOs, dto.AttachmentDTO{Name: a.Name, Path: a.Path})
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, sent); err != nil {
		uow.Rollback()
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, reply); err != nil {
		uow.Rollback()
		return nil, err
	}
	if len(attachments) > 0 {
		if err := uow.ChatAttachmentRepository().CreateBulk(ctx, attachments); err != nil {
			uow.Rollback()
			return nil, err
		}
	}
	if chatSession.Title == "" || chatSession.Title == "New Chat" {
		chatSession.Title = sessionTitle(request.Message)
		now := time.Now()
		chatSession.UpdatedAt = &now
		if err := uow.ChatSessionRepository().Update(ctx, chatSession); err != nil {
			uow.Rollback()
			return nil, err
		}
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.streams.PublishToUser(userID, dto.StreamEvent{
		ChatSessionId: chatSession.Id,
		Type:          "final",
		Content:       result.FinalText,
		Sources:       result.Sources,
		Attachments:   attachmentDTOs,
	})

	event := events.NewChatTurnCompleted(chatSession.Id.String(), userID.String(), result.Sources, turnInput.Image != nil)
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Chat", "Failed to publish turn completed event", map[string]interface{}{"error": err.Error()})
	}

	return &dto.SendMessageResponse{
		ChatSessionId:    chatSession.Id,
		ChatSessionTitle: chatSession.Title,
		Sent: &dto.SendMessageResponseChat{
			Id:        sent.Id,
			Role:      sent.Role,
			Content:   sent.Content,
			CreatedAt: sent.CreatedAt,
		},
		Reply: &dto.SendMessageResponseChat{
			Id:        reply.Id,
			Role:      reply.Role,
			Content:   result.FinalText,
			CreatedAt: reply.CreatedAt,
		},
		Sources:     result.Sources,
		Attachments: attachmentDTOs,
	}, nil
}

// handleSupportRequest forwards the message to the support mailbox instead
// of the answer pipeline. The transcript still records both sides of the
// exchange.
func (s *chatService) handleSupportRequest(ctx context.Context, uow unitofwork.UnitOfWork, userID uuid.UUID, chatSession *entity.ChatSession, message string) (*dto.SendMessageResponse, error) {
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userID})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}

	body := strings.TrimSpace(message)
	if session, ok := s.sessions.Get(chatSession.Id.String()); ok && session.History != "" {
		body += "\n\nConversation so far:\n" + session.History
	}
	if err := s.emailService.SendSupportRequest(user.Email, user.FullName, body); err != nil {
		s.logger.Error("Chat", "Support request delivery failed", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("failed to forward support request: %w", err)
	}

	sent := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: chatSession.Id,
		Role:          constant.ChatMessageRoleUser,
		Content:       message,
		CreatedAt:     time.Now(),
	}
	reply := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: chatSession.Id,
		Role:          constant.ChatMessageRoleModel,
		Content:       supportAcknowledgmentText,
		CreatedAt:     time.Now(),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, sent); err != nil {
		uow.Rollback()
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, reply); err != nil {
		uow.Rollback()
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if session, ok := s.sessions.Get(chatSession.Id.String()); ok {
		session.AppendUserTurn(message)
		session.AppendBotTurn(supportAcknowledgmentText)
		s.sessions.Save(session)
	}

	return &dto.SendMessageResponse{
		ChatSessionId:    chatSession.Id,
		ChatSessionTitle: chatSession.Title,
		Sent: &dto.SendMessageResponseChat{
			Id:        sent.Id,
			Role:      sent.Role,
			Content:   sent.Content,
			CreatedAt: sent.CreatedAt,
		},
		Reply: &dto.SendMessageResponseChat{
			Id:        reply.Id,
			Role:      reply.Role,
			Content:   reply.Content,
			CreatedAt: reply.CreatedAt,
		},
	}, nil
}

func (s *chatService) UpdateSettings(ctx context.Context, userID uuid.UUID, request *dto.UpdateSettingsRequest) (*dto.UpdateSettingsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	chatSession, err := s.findOwnedSession(ctx, uow, userID, request.ChatSessionId)
	if err != nil {
		return nil, err
	}

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userID})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}
	if !contains(s.allowedCollections(user), request.Collection) {
		return nil, ErrCollectionNotAllowed
	}

	chatSession.Collection = request.Collection
	now := time.Now()
	chatSession.UpdatedAt = &now
	if err := uow.ChatSessionRepository().Update(ctx, chatSession); err != nil {
		return nil, err
	}

	// Swap only the active handle; the shared collection, the pipeline and
	// the transcript all survive the switch.
	if session, ok := s.sessions.Get(chatSession.Id.String()); ok {
		session.Collection = request.Collection
		session.Active = retrieval.NewCollectionRetriever(
			request.Collection, s.embeddingProvider, s.uowFactory.NewUnitOfWork(ctx), retrieval.DefaultConfig(), s.ragLogger,
		)
		s.sessions.Save(session)
	}

	return &dto.UpdateSettingsResponse{
		ChatSessionId: chatSession.Id,
		Collection:    request.Collection,
	}, nil
}

func (s *chatService) DeleteSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	chatSession, err := s.findOwnedSession(ctx, uow, userID, sessionID)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	if err := uow.ChatMessageRepository().DeleteBySessionId(ctx, sessionID); err != nil {
		uow.Rollback()
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, chatSession.Id); err != nil {
		uow.Rollback()
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.sessions.Delete(sessionID.String())
	s.engine.ReleaseSession(sessionID.String())
	return nil
}

func isSupportRequest(message string) bool {
	lowered := strings.ToLower(message)
	for _, trigger := range constant.SupportTriggers {
		if strings.Contains(lowered, trigger) {
			return true
		}
	}
	return false
}

func sessionTitle(message string) string {
	title := strings.TrimSpace(message)
	runes := []rune(title)
	if len(runes) > 80 {
		title = string(runes[:77]) + "..."
	}
	return title
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
