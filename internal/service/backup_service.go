package service

import (
	"archive/zip"
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"staffhub/internal/entity"
	"staffhub/internal/repository"
)

// BackupService produces point-in-time dumps of the database (sessions
// excluded) and zip archives of the dump plus uploaded media.
type BackupService struct {
	users     repository.UserRepository
	employees repository.EmployeeRepository
	codes     repository.TwoFactorCodeRepository
	mediaDir  string
	clock     Clock
}

func NewBackupService(
	users repository.UserRepository,
	employees repository.EmployeeRepository,
	codes repository.TwoFactorCodeRepository,
	mediaDir string,
	clock Clock,
) *BackupService {
	return &BackupService{
		users:     users,
		employees: employees,
		codes:     codes,
		mediaDir:  mediaDir,
		clock:     clock,
	}
}

type backupDump struct {
	ExportedAt     time.Time              `json:"exported_at"`
	Users          []entity.User          `json:"users"`
	Employees      []entity.Employee      `json:"employees"`
	TwoFactorCodes []entity.TwoFactorCode `json:"two_factor_codes"`
}

// Dump serializes users, employees and the code ledger as indented JSON.
func (s *BackupService) Dump(ctx context.Context) ([]byte, error) {
	users, err := s.users.List(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	employees, err := s.employees.ListAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	codes, err := s.codes.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	dump := backupDump{
		ExportedAt:     s.now(),
		Users:          users,
		Employees:      employees,
		TwoFactorCodes: codes,
	}
	return json.MarshalIndent(dump, "", "  ")
}

// FullBackup writes a zip archive holding the JSON dump and every file under
// the media directory.
func (s *BackupService) FullBackup(ctx context.Context, w io.Writer) error {
	dump, err := s.Dump(ctx)
	if err != nil {
		return err
	}

	archive := zip.NewWriter(w)

	entry, err := archive.Create("db_backup.json")
	if err != nil {
		return err
	}
	if _, err := entry.Write(dump); err != nil {
		return err
	}

	if s.mediaDir != "" {
		if err := s.addMediaFiles(archive); err != nil {
			return err
		}
	}

	return archive.Close()
}

func (s *BackupService) addMediaFiles(archive *zip.Writer) error {
	info, err := os.Stat(s.mediaDir)
	if err != nil || !info.IsDir() {
		// No media yet, nothing to archive.
		return nil
	}

	return filepath.WalkDir(s.mediaDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		relative, err := filepath.Rel(s.mediaDir, path)
		if err != nil {
			return err
		}
		entry, err := archive.Create(filepath.ToSlash(filepath.Join("media", relative)))
		if err != nil {
			return err
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(entry, file)
		return err
	})
}

func (s *BackupService) BackupFilename(extension string) string {
	return "backup_" + s.now().Format("20060102_150405") + "." + extension
}

func (s *BackupService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}
