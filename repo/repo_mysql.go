package repo

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NeuralEnsemble/download/conf"
	"github.com/NeuralEnsemble/download/domain"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

const schema = `
CREATE TABLE IF NOT EXISTS download_requests (
	id BIGINT NOT NULL AUTO_INCREMENT,
	reference VARCHAR(64) NOT NULL,
	name VARCHAR(128) NOT NULL,
	email VARCHAR(128) NOT NULL,
	institution VARCHAR(256) NOT NULL,
	country VARCHAR(64) NOT NULL,
	brain_region VARCHAR(128) NOT NULL,
	research_topic VARCHAR(128) NOT NULL,
	description_research TEXT,
	comment TEXT,
	request_date TIMESTAMP NOT NULL,
	client_server VARCHAR(256) NOT NULL,
	CONSTRAINT download_requests_pk PRIMARY KEY (id),
	CONSTRAINT download_requests_reference_uq UNIQUE (reference)
);
CREATE TABLE IF NOT EXISTS downloads (
	id BIGINT NOT NULL AUTO_INCREMENT,
	download_date TIMESTAMP NOT NULL,
	client_server VARCHAR(256) NOT NULL,
	reference VARCHAR(64) NOT NULL,
	filename VARCHAR(256) NOT NULL,
	CONSTRAINT downloads_pk PRIMARY KEY (id),
	INDEX downloads_reference_idx (reference),
	CONSTRAINT downloads_reference_fk FOREIGN KEY (reference)
		REFERENCES download_requests (reference)
);
CREATE TABLE IF NOT EXISTS users (
	username VARCHAR(128) NOT NULL,
	hash VARCHAR(128),
	email VARCHAR(128),
	name VARCHAR(128),
	type INT NOT NULL,
	modify_date TIMESTAMP NOT NULL,
	last_login TIMESTAMP NOT NULL,
	CONSTRAINT users_pk PRIMARY KEY (username)
)`

var (
	// ErrNotFound is a not found error if Get does not retrieve a value
	ErrNotFound = errors.New("not_found")
	// ErrDuplicate is returned when an insert violates a unique constraint
	ErrDuplicate = errors.New("duplicate")
)

const requestColumns = `reference, name, email, institution, country, brain_region,
research_topic, description_research, comment, request_date, client_server`

type Repo struct {
	db *sqlx.DB
}

// New repo is returned
// To create the relevant MySQL databases on local please do the following:
//   mysql -u root (if password is set then add -p)
//   mysql> CREATE DATABASE download CHARACTER SET = utf8;
//   mysql> CREATE USER download IDENTIFIED BY 'password';
//   mysql> GRANT ALL on download.* TO download;
// Requests and downloads are independent append-only facts so single-row
// inserts are all the transactional discipline we need.
func New() (*Repo, error) {
	logrus.Infof("Using MySQL at %s with user %s", conf.Options.DB.ConnectString, conf.Options.DB.Username)
	db, err := sqlx.Connect("mysql", fmt.Sprintf("%s:%s@%s", conf.Options.DB.Username, conf.Options.DB.Password, conf.Options.DB.ConnectString))
	if err != nil {
		return nil, err
	}
	// Have to set it to make sure no connection is left idle and being killed
	db.SetMaxIdleConns(0)
	creates := strings.Split(schema, ";")
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	for _, create := range creates {
		if strings.TrimSpace(create) == "" {
			continue
		}
		_, err = tx.Exec(create)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	err = tx.Commit()
	if err != nil {
		return nil, err
	}
	logrus.Info("Schema creation is done")
	return &Repo{db: db}, nil
}

func (r *Repo) Close() error {
	return r.db.Close()
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// CreateRequest persists a new download request. The row is immutable from
// here on. A reference collision surfaces as ErrDuplicate so the caller can
// issue a fresh one.
func (r *Repo) CreateRequest(req *domain.DownloadRequest) error {
	logrus.Infof("Saving download request - %s <%s>", req.Reference, req.Email)
	if req.RequestDate.IsZero() {
		req.RequestDate = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO download_requests (`+requestColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.Reference, req.Name, req.Email, req.Institution, req.Country, req.BrainRegion,
		req.ResearchTopic, req.DescriptionResearch, req.Comment, req.RequestDate, req.ClientServer)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// RequestByReference retrieves a request by exact reference match
func (r *Repo) RequestByReference(ref string) (*domain.DownloadRequest, error) {
	req := &domain.DownloadRequest{}
	err := r.db.Get(req, `SELECT `+requestColumns+` FROM download_requests WHERE reference = ?`, ref)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

// AddDownload appends a row to the download log
func (r *Repo) AddDownload(d *domain.Download) error {
	logrus.Infof("Saving download - %s %s", d.Reference, d.Filename)
	if d.DownloadDate.IsZero() {
		d.DownloadDate = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO downloads (download_date, client_server, reference, filename)
VALUES (?, ?, ?, ?)`,
		d.DownloadDate, d.ClientServer, d.Reference, d.Filename)
	return err
}

// DownloadCount for a single reference
func (r *Repo) DownloadCount(ref string) (int, error) {
	var count int
	err := r.db.Get(&count, `SELECT COUNT(*) FROM downloads WHERE reference = ?`, ref)
	return count, err
}

func requestQualifier(f domain.StatsFilter) (string, []interface{}) {
	where := " WHERE 1=1"
	var args []interface{}
	if f.Reference != "" {
		where += " AND reference = ?"
		args = append(args, f.Reference)
	}
	if f.Country != "" {
		where += " AND country = ?"
		args = append(args, f.Country)
	}
	return where, args
}

// Requests lists requests with their download counts, newest first
func (r *Repo) Requests(f domain.StatsFilter) ([]domain.RequestSummary, error) {
	where, args := requestQualifier(f)
	var res []domain.RequestSummary
	err := r.db.Select(&res, `SELECT `+requestColumns+`,
(SELECT COUNT(*) FROM downloads d WHERE d.reference = download_requests.reference) AS downloads
FROM download_requests`+where+` ORDER BY id DESC`, args...)
	return res, err
}

// Downloads lists the raw download log, optionally for a single reference
func (r *Repo) Downloads(f domain.StatsFilter) ([]domain.Download, error) {
	q := `SELECT id, download_date, client_server, reference, filename FROM downloads`
	var args []interface{}
	if f.Reference != "" {
		q += ` WHERE reference = ?`
		args = append(args, f.Reference)
	}
	q += ` ORDER BY id`
	var res []domain.Download
	err := r.db.Select(&res, q, args...)
	return res, err
}

// Per platform breakdown is keyed by filename suffix, same as the original report
var platformSuffixes = []struct {
	platform string
	suffix   string
}{
	{"Windows", "%exe"},
	{"Linux", "%sh"},
	{"Mac", "%dmg"},
	{"Zip", "%zip"},
}

// Stats computes the aggregate totals. Download totals are omitted when
// filtering by country since the log rows do not carry one.
func (r *Repo) Stats(f domain.StatsFilter) (*domain.Stats, error) {
	where, args := requestQualifier(f)
	s := &domain.Stats{}
	if err := r.db.Get(&s.Requests, `SELECT COUNT(*) FROM download_requests`+where, args...); err != nil {
		return nil, err
	}
	if err := r.db.Get(&s.DistinctEmails, `SELECT COUNT(DISTINCT email) FROM download_requests`+where, args...); err != nil {
		return nil, err
	}
	if f.Country != "" {
		return s, nil
	}
	dlWhere := ""
	var dlArgs []interface{}
	if f.Reference != "" {
		dlWhere = ` WHERE reference = ?`
		dlArgs = append(dlArgs, f.Reference)
	}
	if err := r.db.Get(&s.Downloads, `SELECT COUNT(*) FROM downloads`+dlWhere, dlArgs...); err != nil {
		return nil, err
	}
	for _, p := range platformSuffixes {
		q := `SELECT COUNT(*) FROM downloads`
		pArgs := dlArgs
		if dlWhere != "" {
			q += dlWhere + ` AND filename LIKE ?`
		} else {
			q += ` WHERE filename LIKE ?`
		}
		pArgs = append(pArgs, p.suffix)
		var count int
		if err := r.db.Get(&count, q, pArgs...); err != nil {
			return nil, err
		}
		pc := domain.PlatformCount{Platform: p.platform, Downloads: count}
		if s.Downloads > 0 {
			pc.Percent = float64(100*count) / float64(s.Downloads)
		}
		s.Platforms = append(s.Platforms, pc)
	}
	return s, nil
}

// CountryBreakdown groups requests by country, busiest first
func (r *Repo) CountryBreakdown(f domain.StatsFilter) ([]domain.CountryCount, error) {
	where, args := requestQualifier(f)
	var res []domain.CountryCount
	err := r.db.Select(&res, `SELECT country, COUNT(country) AS requests, COUNT(DISTINCT email) AS distinct_emails
FROM download_requests`+where+` GROUP BY country ORDER BY distinct_emails DESC`, args...)
	return res, err
}

func (r *Repo) User(username string) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.Get(user, `SELECT * FROM users WHERE username = ?`, username)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *Repo) SetUser(u *domain.User) error {
	logrus.Infof("Saving user - %s", u.Username)
	if u.ModifyDate.IsZero() {
		u.ModifyDate = time.Now()
	}
	// Zero time is out of range for a MySQL TIMESTAMP
	if u.LastLogin.IsZero() {
		u.LastLogin = u.ModifyDate
	}
	_, err := r.db.Exec(`INSERT INTO users (
username, hash, email, name, type, modify_date, last_login)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
hash = ?,
email = ?,
name = ?,
type = ?,
modify_date = ?,
last_login = ?`,
		u.Username, u.Hash, u.Email, u.Name, u.Type, u.ModifyDate, u.LastLogin,
		u.Hash, u.Email, u.Name, u.Type, u.ModifyDate, u.LastLogin)
	return err
}
