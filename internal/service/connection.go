package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/mentorship-platform/internal/apperror"
	"github.com/sakif/mentorship-platform/internal/model"
	"github.com/sakif/mentorship-platform/internal/repository"
)

const (
	msgAlreadyPending   = "connection request already pending"
	msgAlreadyConnected = "users are already connected"
)

// ConnectionService runs the mentor/mentee request workflow.
//
// STATE MACHINE:
//
//	pending --accept (receiver)-->   accepted
//	pending --reject (receiver)-->   deleted
//	pending --cancel (initiator)-->  deleted
//	accepted --remove (either)-->    deleted
//
// Nothing reopens a deleted record; asking again creates a new row.
//
// ONE ACTIVE RECORD PER PAIR:
// CreateRequest looks for a pending or accepted record first so it can say
// which of the two it found. The lookup alone cannot stop two concurrent
// requests for the same pair, so the storage layer also carries a unique
// index; when the insert trips it, the error is reported exactly as if the
// lookup had found the row.
type ConnectionService struct {
	users       repository.UserRepository
	connections repository.ConnectionRepository
	logger      *slog.Logger
}

func NewConnectionService(
	users repository.UserRepository,
	connections repository.ConnectionRepository,
	logger *slog.Logger,
) *ConnectionService {
	return &ConnectionService{
		users:       users,
		connections: connections,
		logger:      logger,
	}
}

// CreateRequest sends a connection request from initiatorID to targetID.
// The initiator may be either the mentor or the mentee.
func (s *ConnectionService) CreateRequest(ctx context.Context, initiatorID, targetID string) (*model.ConnectionRequest, error) {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return nil, apperror.ValidationFailed("receiverId", "receiverId is required")
	}

	// Checked before any lookup so it fails the same way for every role.
	if initiatorID == targetID {
		return nil, apperror.SelfReference()
	}

	initiator, err := s.users.GetUserByID(ctx, initiatorID)
	if err != nil {
		return nil, fmt.Errorf("service/connection: loading initiator: %w", err)
	}
	target, err := s.users.GetUserByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("service/connection: loading receiver: %w", err)
	}

	mentorID, menteeID, err := AssignRoles(initiator, target)
	if err != nil {
		return nil, err
	}

	existing, err := s.connections.FindActiveConnection(ctx, mentorID, menteeID)
	switch {
	case err == nil:
		return nil, duplicateError(existing.Status)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/connection: checking existing request: %w", err)
	}

	req := &model.ConnectionRequest{
		MentorID:    mentorID,
		MenteeID:    menteeID,
		InitiatorID: initiatorID,
		Status:      model.StatusPending,
	}

	if err := s.connections.CreateConnection(ctx, req); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			s.logger.Info("concurrent connection request rejected by unique index",
				slog.String("mentorID", mentorID),
				slog.String("menteeID", menteeID),
			)
			return nil, s.duplicateAfterRace(ctx, mentorID, menteeID)
		}
		s.logger.Error("failed to create connection request",
			slog.String("initiatorID", initiatorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/connection: creating request: %w", err)
	}

	s.logger.Info("connection request created",
		slog.String("id", req.ID),
		slog.String("mentorID", mentorID),
		slog.String("menteeID", menteeID),
		slog.String("initiatorID", initiatorID),
	)

	return req, nil
}

// ListForUser splits the user's records into accepted connections and
// pending requests. Pending entries say whether the user sent or received
// them. Both lists are newest first and never nil.
func (s *ConnectionService) ListForUser(ctx context.Context, userID string) (*model.ConnectionList, error) {
	views, err := s.connections.ListConnectionsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/connection: listing for %s: %w", userID, err)
	}

	list := &model.ConnectionList{
		Active:  []model.ConnectionView{},
		Pending: []model.ConnectionView{},
	}
	for _, v := range views {
		switch v.Status {
		case model.StatusAccepted:
			v.Direction = ""
			list.Active = append(list.Active, v)
		case model.StatusPending:
			v.Direction = model.DirectionReceived
			if v.InitiatorID == userID {
				v.Direction = model.DirectionSent
			}
			list.Pending = append(list.Pending, v)
		}
	}

	return list, nil
}

// AcceptRequest moves a pending request to accepted. Only the party who did
// not send it may accept; anyone else gets the same not-found error as for a
// request that does not exist.
func (s *ConnectionService) AcceptRequest(ctx context.Context, requestID, actingUserID string) (*model.ConnectionRequest, error) {
	req, err := s.connections.FindPendingForResponder(ctx, requestID, actingUserID)
	if err != nil {
		return nil, err
	}

	if err := s.connections.UpdateConnectionStatus(ctx, req.ID, model.StatusPending, model.StatusAccepted); err != nil {
		return nil, fmt.Errorf("service/connection: accepting %s: %w", req.ID, err)
	}
	req.Status = model.StatusAccepted

	s.logger.Info("connection request accepted",
		slog.String("id", req.ID),
		slog.String("by", actingUserID),
	)
	return req, nil
}

// RejectRequest deletes a pending request on behalf of its receiver.
func (s *ConnectionService) RejectRequest(ctx context.Context, requestID, actingUserID string) error {
	req, err := s.connections.FindPendingForResponder(ctx, requestID, actingUserID)
	if err != nil {
		return err
	}

	if err := s.connections.DeleteConnection(ctx, req.ID); err != nil {
		return fmt.Errorf("service/connection: rejecting %s: %w", req.ID, err)
	}

	s.logger.Info("connection request rejected",
		slog.String("id", req.ID),
		slog.String("by", actingUserID),
	)
	return nil
}

// CancelRequest lets the initiator withdraw a request that is still pending.
func (s *ConnectionService) CancelRequest(ctx context.Context, requestID, actingUserID string) error {
	req, err := s.connections.FindPendingForInitiator(ctx, requestID, actingUserID)
	if err != nil {
		return err
	}

	if err := s.connections.DeleteConnection(ctx, req.ID); err != nil {
		return fmt.Errorf("service/connection: cancelling %s: %w", req.ID, err)
	}

	s.logger.Info("connection request cancelled",
		slog.String("id", req.ID),
		slog.String("by", actingUserID),
	)
	return nil
}

// RemoveConnection hard-deletes a record on behalf of either party. Unlike
// accept/reject, a stranger learns the record exists: they get 403, not 404.
func (s *ConnectionService) RemoveConnection(ctx context.Context, connectionID, actingUserID string) error {
	conn, err := s.connections.GetConnection(ctx, connectionID)
	if err != nil {
		return err
	}

	if !conn.Involves(actingUserID) {
		s.logger.Warn("connection removal refused",
			slog.String("id", conn.ID),
			slog.String("by", actingUserID),
		)
		return apperror.Forbidden("not authorized to remove this connection")
	}

	if err := s.connections.DeleteConnection(ctx, conn.ID); err != nil {
		return fmt.Errorf("service/connection: removing %s: %w", conn.ID, err)
	}

	s.logger.Info("connection removed",
		slog.String("id", conn.ID),
		slog.String("by", actingUserID),
	)
	return nil
}

// duplicateAfterRace re-reads the winning row so the message matches its
// status. If it is already gone again, "pending" is the best guess.
func (s *ConnectionService) duplicateAfterRace(ctx context.Context, mentorID, menteeID string) error {
	if winner, err := s.connections.FindActiveConnection(ctx, mentorID, menteeID); err == nil {
		return duplicateError(winner.Status)
	}
	return apperror.DuplicateRequest(msgAlreadyPending)
}

func duplicateError(status model.Status) error {
	if status == model.StatusAccepted {
		return apperror.DuplicateRequest(msgAlreadyConnected)
	}
	return apperror.DuplicateRequest(msgAlreadyPending)
}
