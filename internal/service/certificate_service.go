package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"github.com/google/uuid"
)

type CertificateService struct {
	Repo     *repository.CertificateRepository
	UserRepo *repository.UserRepository
	Notes    *NotificationService
	Now      func() time.Time
}

func NewCertificateService(repo *repository.CertificateRepository, userRepo *repository.UserRepository, notes *NotificationService) *CertificateService {
	return &CertificateService{Repo: repo, UserRepo: userRepo, Notes: notes, Now: time.Now}
}

// newCertificateNumber LMS-20260102-1A2B3C4D5E
func newCertificateNumber(now time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("LMS-%s-%s", now.Format("20060102"), id[:10])
}

// Issue 返回已有证书或新签发一张。(user, type, reference) 唯一，
// 并发签发时插入失败的一方读取并返回胜出方的记录。已吊销的证书同样原样返回，不会重签。
func (s *CertificateService) Issue(tx repository.Store, fx *Effects, userID uint, typ model.CertificateType, refID uint, title string) (*model.Certificate, error) {
	existing, err := tx.FindCertificate(userID, typ, refID)
	if err == nil {
		return existing, nil
	}
	if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("find certificate: %w", err)
	}

	now := s.now()
	cert := &model.Certificate{
		UserID:      userID,
		Type:        typ,
		ReferenceID: refID,
		Title:       title,
		IssuedAt:    now,
	}
	// 编号冲突的概率极低，冲突时换一个编号重试一次
	for i := 0; i < 2; i++ {
		cert.Number = newCertificateNumber(now)
		err = tx.CreateCertificate(cert)
		if err == nil {
			break
		}
		if !repository.IsDuplicate(err) {
			return nil, fmt.Errorf("create certificate: %w", err)
		}
		if existing, ferr := tx.FindCertificate(userID, typ, refID); ferr == nil {
			return existing, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}

	if err := s.Notes.Notify(tx, fx, userID, model.NotificationCertificate,
		"获得证书", fmt.Sprintf("恭喜获得《%s》证书，编号 %s", title, cert.Number),
		"/portal/certificates/"+cert.Number); err != nil {
		return nil, err
	}
	fx.add(Event{Kind: EventCertificateIssued, UserID: userID, Certificate: cert, RefID: refID})
	return cert, nil
}

func (s *CertificateService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *CertificateService) ListMine(userID uint) ([]model.Certificate, error) {
	return s.Repo.ListCertificatesByUser(userID)
}

func (s *CertificateService) List(typ model.CertificateType, page, limit int) ([]model.Certificate, int64, error) {
	return s.Repo.ListCertificates(typ, page, limit)
}

func (s *CertificateService) Revoke(ctx context.Context, id uint, reason string) (*model.Certificate, error) {
	cert, err := s.Repo.FindCertificateByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrCertificateNotFound
		}
		return nil, err
	}
	if cert.RevokedAt != nil {
		return cert, nil
	}
	now := s.now()
	cert.RevokedAt = &now
	cert.RevokedReason = reason
	if err := s.Repo.SaveCertificate(cert); err != nil {
		return nil, err
	}
	return cert, nil
}

func (s *CertificateService) Restore(ctx context.Context, id uint) (*model.Certificate, error) {
	cert, err := s.Repo.FindCertificateByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrCertificateNotFound
		}
		return nil, err
	}
	cert.RevokedAt = nil
	cert.RevokedReason = ""
	if err := s.Repo.SaveCertificate(cert); err != nil {
		return nil, err
	}
	return cert, nil
}

// CertificateVerification 公开校验结果，只暴露持有人姓名
type CertificateVerification struct {
	Number     string                `json:"number"`
	Valid      bool                  `json:"valid"`
	Type       model.CertificateType `json:"type"`
	Title      string                `json:"title"`
	HolderName string                `json:"holderName"`
	IssuedAt   time.Time             `json:"issuedAt"`
	RevokedAt  *time.Time            `json:"revokedAt,omitempty"`
}

func (s *CertificateService) Verify(number string) (*CertificateVerification, error) {
	cert, err := s.Repo.FindCertificateByNumber(strings.TrimSpace(number))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrCertificateNotFound
		}
		return nil, err
	}
	v := &CertificateVerification{
		Number:    cert.Number,
		Valid:     cert.Valid(),
		Type:      cert.Type,
		Title:     cert.Title,
		IssuedAt:  cert.IssuedAt,
		RevokedAt: cert.RevokedAt,
	}
	if u, err := s.UserRepo.FindUser(cert.UserID); err == nil {
		v.HolderName = u.Name
	}
	return v, nil
}
