package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cgmartin0310/careconnect/internal/domain/compliance"
	"github.com/cgmartin0310/careconnect/internal/platform/auth"
	"github.com/cgmartin0310/careconnect/internal/platform/sendbird"
)

var (
	ErrNotFound        = ErrConversationNotFound
	ErrPatientNotFound = errors.New("patient not found")
	ErrNotMember       = errors.New("user is not a member of this conversation")
	ErrDeleteForbidden = errors.New("only the creator or an admin can delete a conversation")
	ErrTitleRequired   = errors.New("title is required")
	ErrMessageRequired = errors.New("message is required")
)

// NoCompliantMembersError aborts provisioning when the consent check
// rejects every requested member. It carries the per-member reasons so the
// caller can see exactly who was refused and why.
type NoCompliantMembersError struct {
	NonCompliant []MemberSummary
}

func (e *NoCompliantMembersError) Error() string {
	return "no compliant members found"
}

// channelCustomType tags care-team channels on the messaging platform.
const channelCustomType = "care_team_conversation"

// PatientInfo is the slim patient projection provisioning needs.
type PatientInfo struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
}

// PatientDirectory resolves patients. Implementations return
// ErrPatientNotFound when no patient matches.
type PatientDirectory interface {
	Patient(ctx context.Context, id uuid.UUID) (*PatientInfo, error)
}

// Participant is the slim user projection provisioning needs.
type Participant struct {
	ID          uuid.UUID
	FirstName   string
	LastName    string
	IsExternal  bool
	PhoneNumber *string
	SendbirdID  *string
}

// ParticipantDirectory resolves and materializes conversation
// participants.
type ParticipantDirectory interface {
	Participant(ctx context.Context, id uuid.UUID) (*Participant, error)
	// FindOrCreateExternal materializes an SMS participant from a phone
	// number, returning the same account on repeat calls.
	FindOrCreateExternal(ctx context.Context, phoneNumber, name string) (*Participant, error)
	RecordSendbirdID(ctx context.Context, id uuid.UUID, sendbirdID string) error
}

// ComplianceChecker partitions requested members by consent status.
type ComplianceChecker interface {
	CheckUsers(ctx context.Context, userIDs []uuid.UUID, patientID uuid.UUID) []compliance.Result
}

type Service struct {
	repo         Repository
	patients     PatientDirectory
	participants ParticipantDirectory
	checker      ComplianceChecker
	sb           sendbird.Client
	log          zerolog.Logger
}

func NewService(repo Repository, patients PatientDirectory, participants ParticipantDirectory,
	checker ComplianceChecker, sb sendbird.Client, log zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		patients:     patients,
		participants: participants,
		checker:      checker,
		sb:           sb,
		log:          log,
	}
}

// CreateConversation provisions a care-team conversation: it checks every
// requested member against the patient's consents, creates the remote
// channel with only the admitted members, and records the full audit
// trail. Nothing is persisted until the remote channel exists, so a
// platform failure leaves no half-created conversation behind.
func (s *Service) CreateConversation(ctx context.Context, creatorID uuid.UUID, req CreateRequest) (*CreateResult, error) {
	if req.Title == "" {
		return nil, ErrTitleRequired
	}
	pat, err := s.patients.Patient(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}

	memberIDs := dedupeWithCreator(creatorID, req.MemberIDs)
	results := s.checker.CheckUsers(ctx, memberIDs, req.PatientID)

	var compliant, nonCompliant []compliance.Result
	for _, r := range results {
		if r.Compliant {
			compliant = append(compliant, r)
		} else {
			nonCompliant = append(nonCompliant, r)
		}
	}
	if len(compliant) == 0 {
		return nil, &NoCompliantMembersError{NonCompliant: summarize(nonCompliant)}
	}

	externals, err := s.materializeExternals(ctx, req.ExternalMembers, memberIDs)
	if err != nil {
		return nil, err
	}

	channelUserIDs := make([]string, 0, len(compliant)+len(externals))
	for _, r := range compliant {
		platformID, err := s.syncParticipant(ctx, r.UserID)
		if err != nil {
			return nil, err
		}
		channelUserIDs = append(channelUserIDs, platformID)
	}
	for _, p := range externals {
		platformID, err := s.syncLoaded(ctx, p)
		if err != nil {
			return nil, err
		}
		channelUserIDs = append(channelUserIDs, platformID)
	}

	ch, err := s.sb.CreateGroupChannel(ctx, sendbird.ChannelParams{
		Name:       req.Title,
		UserIDs:    channelUserIDs,
		CustomType: channelCustomType,
		Data: map[string]interface{}{
			"patientId":        pat.ID.String(),
			"patientName":      pat.FirstName + " " + pat.LastName,
			"createdByUserId":  creatorID.String(),
			"conversationType": "care_team",
		},
		IsDistinct: false,
	})
	if err != nil {
		return nil, fmt.Errorf("creating channel: %w", err)
	}

	conv := &Conversation{
		Title:              req.Title,
		PatientID:          req.PatientID,
		CreatedBy:          creatorID,
		SendbirdChannelURL: ch.ChannelURL,
	}
	members := make([]Member, 0, len(results)+len(externals))
	for _, r := range results {
		members = append(members, Member{
			UserID:         r.UserID,
			IsCompliant:    r.Compliant,
			ComplianceNote: r.Reason,
		})
	}
	for _, p := range externals {
		members = append(members, Member{
			UserID:         p.ID,
			IsCompliant:    true,
			ComplianceNote: compliance.ReasonExternalUser,
		})
	}
	if err := s.repo.CreateWithMembers(ctx, conv, members); err != nil {
		return nil, fmt.Errorf("saving conversation: %w", err)
	}

	// Best effort: the channel works without SMS routing, so a failure
	// here must not fail the whole provisioning.
	if len(externals) > 0 {
		err := s.sb.UpdateChannelData(ctx, ch.ChannelURL, map[string]interface{}{
			"sms_enabled":  true,
			"sms_fallback": true,
		})
		if err != nil {
			s.log.Warn().Err(err).Str("channel_url", ch.ChannelURL).
				Msg("enabling sms routing on channel failed")
		}
	}

	extSummaries := make([]ExternalMemberSummary, len(externals))
	for i, p := range externals {
		extSummaries[i] = ExternalMemberSummary{
			UserID:      p.ID,
			PhoneNumber: derefStr(p.PhoneNumber),
			Name:        p.FirstName + " " + p.LastName,
		}
	}

	s.log.Info().
		Stringer("conversation_id", conv.ID).
		Str("channel_url", ch.ChannelURL).
		Int("compliant", len(compliant)).
		Int("non_compliant", len(nonCompliant)).
		Int("external", len(externals)).
		Msg("conversation provisioned")

	return &CreateResult{
		ConversationID:      conv.ID,
		SendbirdChannelURL:  ch.ChannelURL,
		CompliantMembers:    summarize(compliant),
		NonCompliantMembers: summarize(nonCompliant),
		ExternalMembers:     extSummaries,
	}, nil
}

func (s *Service) ListConversations(ctx context.Context, userID uuid.UUID) ([]Conversation, error) {
	return s.repo.ListForUser(ctx, userID)
}

// GetConversation returns a conversation with its member audit rows.
// Only compliant members may read it.
func (s *Service) GetConversation(ctx context.Context, id, userID uuid.UUID) (*Conversation, []Member, error) {
	conv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	ok, err := s.repo.IsCompliantMember(ctx, id, userID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrNotMember
	}
	members, err := s.repo.Members(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return conv, members, nil
}

// SendMessage relays a message into the channel on behalf of a compliant
// member.
func (s *Service) SendMessage(ctx context.Context, userID uuid.UUID, channelURL, message string) error {
	if message == "" {
		return ErrMessageRequired
	}
	conv, err := s.repo.FindByChannelURL(ctx, channelURL)
	if err != nil {
		return err
	}
	ok, err := s.repo.IsCompliantMember(ctx, conv.ID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}
	p, err := s.participants.Participant(ctx, userID)
	if err != nil {
		return err
	}
	return s.sb.SendMessage(ctx, sendbird.MessageParams{
		ChannelURL: channelURL,
		UserID:     platformID(p),
		Message:    message,
	})
}

// DeleteConversation removes the conversation and its member rows. Only
// the creator or an admin may delete. The remote channel delete is best
// effort; the local record is authoritative.
func (s *Service) DeleteConversation(ctx context.Context, id, userID uuid.UUID, role string) error {
	conv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if conv.CreatedBy != userID && role != auth.RoleAdmin {
		return ErrDeleteForbidden
	}
	if err := s.sb.DeleteChannel(ctx, conv.SendbirdChannelURL); err != nil {
		s.log.Warn().Err(err).Str("channel_url", conv.SendbirdChannelURL).
			Msg("deleting remote channel failed")
	}
	return s.repo.Delete(ctx, id)
}

// materializeExternals resolves phone-number participants into accounts,
// skipping any that already arrived through the member id list.
func (s *Service) materializeExternals(ctx context.Context, inputs []ExternalMemberInput, memberIDs []uuid.UUID) ([]*Participant, error) {
	seen := make(map[uuid.UUID]bool, len(memberIDs))
	for _, id := range memberIDs {
		seen[id] = true
	}
	var out []*Participant
	for _, in := range inputs {
		p, err := s.participants.FindOrCreateExternal(ctx, in.PhoneNumber, in.Name)
		if err != nil {
			return nil, fmt.Errorf("materializing external participant: %w", err)
		}
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out, nil
}

// syncParticipant pushes a user's account to the messaging platform and
// returns the platform id to address them by.
func (s *Service) syncParticipant(ctx context.Context, userID uuid.UUID) (string, error) {
	p, err := s.participants.Participant(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("loading participant %s: %w", userID, err)
	}
	return s.syncLoaded(ctx, p)
}

func (s *Service) syncLoaded(ctx context.Context, p *Participant) (string, error) {
	id := platformID(p)
	err := s.sb.CreateOrUpdateUser(ctx, sendbird.User{
		UserID:   id,
		Nickname: p.FirstName + " " + p.LastName,
	})
	if err != nil {
		return "", fmt.Errorf("syncing participant %s: %w", p.ID, err)
	}
	if p.SendbirdID == nil || *p.SendbirdID != id {
		if err := s.participants.RecordSendbirdID(ctx, p.ID, id); err != nil {
			s.log.Warn().Err(err).Stringer("user_id", p.ID).
				Msg("recording platform id failed")
		}
	}
	return id, nil
}

// platformID picks the deterministic messaging-platform id for a
// participant: a stored id wins, SMS participants key off their phone
// number, staff off their account id.
func platformID(p *Participant) string {
	if p.SendbirdID != nil && *p.SendbirdID != "" {
		return *p.SendbirdID
	}
	if p.IsExternal && p.PhoneNumber != nil {
		return sendbird.SMSUserID(*p.PhoneNumber)
	}
	return sendbird.StaffUserID(p.ID)
}

func dedupeWithCreator(creatorID uuid.UUID, memberIDs []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(memberIDs)+1)
	seen := map[uuid.UUID]bool{creatorID: true}
	out = append(out, creatorID)
	for _, id := range memberIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
