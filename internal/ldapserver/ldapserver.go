// Package ldapserver exposes the SQL backend over LDAP so services that
// only speak LDAP can authenticate against the same user database.
package ldapserver

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-ldap/ldap"
	"github.com/jimlambrt/gldap"
	"github.com/rs/zerolog"
	ber "gopkg.in/asn1-ber.v1"

	"github.com/blesswinsamuel/sql-user-backend/internal/backend"
)

type Config struct {
	BindUsername string
	BindPassword string
	BaseDN       string
}

type LdapServer struct {
	users  *backend.UserBackend
	groups *backend.GroupBackend
	srv    *gldap.Server
	config Config
	log    zerolog.Logger

	// a very simple way to track authenticated connections
	authenticatedConnections map[int]struct{}
}

func NewLdapServer(
	users *backend.UserBackend, groups *backend.GroupBackend,
	config Config, log zerolog.Logger,
) (*LdapServer, error) {
	s := &LdapServer{
		users:  users,
		groups: groups,
		config: config,
		log:    log.With().Str("component", "ldap").Logger(),

		authenticatedConnections: make(map[int]struct{}),
	}
	var err error
	s.srv, err = gldap.NewServer()
	if err != nil {
		return nil, fmt.Errorf("NewLdapServer: %w", err)
	}
	r, err := gldap.NewMux()
	if err != nil {
		return nil, fmt.Errorf("NewLdapServer: %w", err)
	}
	r.Bind(s.bindHandler)
	r.Search(s.searchHandler)
	r.Modify(s.modifyHandler)
	r.Unbind(s.unbindHandler)
	s.srv.Router(r)
	return s, nil
}

func (s *LdapServer) Start(host string, port int) error {
	return s.srv.Run(host + ":" + strconv.Itoa(port))
}

func (s *LdapServer) Stop() {
	s.log.Info().Msg("stopping ldap server")
	s.srv.Stop()
	s.log.Info().Msg("stopped ldap server")
}

func mustParseDN(v string) *ldap.DN {
	dn, err := ldap.ParseDN(v)
	if err != nil {
		panic(err)
	}
	return dn
}

func (s *LdapServer) bindHandler(w *gldap.ResponseWriter, r *gldap.Request) {
	logger := s.log.With().Str("method", "bindHandler").Int("id", r.ID).Logger()
	m, err := r.GetSimpleBindMessage()
	if err != nil {
		logger.Error().Err(err).Msg("not a simple bind message")
		w.Write(r.NewBindResponse(gldap.WithResponseCode(gldap.ResultInvalidCredentials)))
		return
	}
	logger = logger.With().Str("username", m.UserName).Logger()
	logger.Debug().Msg("bind request")

	if s.config.BindUsername != "" &&
		m.UserName == s.config.BindUsername &&
		m.Password == gldap.Password(s.config.BindPassword) {
		s.authenticatedConnections[r.ConnectionID()] = struct{}{}
		logger.Info().Msg("service bind success")
		w.Write(r.NewBindResponse(gldap.WithResponseCode(gldap.ResultSuccess)))
		return
	}

	username := m.UserName
	if dn, err := ldap.ParseDN(m.UserName); err == nil {
		baseDN := mustParseDN(s.config.BaseDN)
		if !baseDN.AncestorOf(dn) {
			logger.Error().Str("dn", m.UserName).Msg("dn outside base")
			w.Write(r.NewBindResponse(gldap.WithResponseCode(gldap.ResultInvalidCredentials)))
			return
		}
		rdns := rdnsToMap(dn.RDNs)
		if uids := rdns["uid"]; len(uids) > 0 {
			username = uids[0]
		} else if cns := rdns["cn"]; len(cns) > 0 {
			username = cns[0]
		}
	}

	uid, err := s.users.CheckPassword(context.Background(), username, string(m.Password))
	if err != nil {
		if !errors.Is(err, backend.ErrInvalidCredentials) &&
			!errors.Is(err, backend.ErrAccountInactive) {
			logger.Error().Err(err).Msg("credential check failed")
		}
		w.Write(r.NewBindResponse(gldap.WithResponseCode(gldap.ResultInvalidCredentials)))
		return
	}

	s.authenticatedConnections[r.ConnectionID()] = struct{}{}
	logger.Info().Str("uid", uid).Msg("user bind success")
	w.Write(r.NewBindResponse(gldap.WithResponseCode(gldap.ResultSuccess)))
}

func (s *LdapServer) unbindHandler(w *gldap.ResponseWriter, r *gldap.Request) {
	s.log.Debug().Msg("unbind")
	delete(s.authenticatedConnections, r.ConnectionID())
}

func (s *LdapServer) searchHandler(w *gldap.ResponseWriter, r *gldap.Request) {
	logger := s.log.With().Str("method", "searchHandler").Int("id", r.ID).Logger()
	if _, ok := s.authenticatedConnections[r.ConnectionID()]; !ok {
		logger.Warn().Int("connection", r.ConnectionID()).Msg("connection is not authorized")
		w.Write(r.NewSearchDoneResponse(gldap.WithResponseCode(gldap.ResultAuthorizationDenied)))
		return
	}

	m, err := r.GetSearchMessage()
	if err != nil {
		logger.Error().Err(err).Msg("not a search message")
		w.Write(r.NewSearchDoneResponse(gldap.WithResponseCode(gldap.ResultAuthorizationDenied)))
		return
	}
	logger = logger.With().Str("base_dn", m.BaseDN).Str("filter", m.Filter).Logger()
	logger.Debug().Msg("search request")

	if m.BaseDN == "" {
		// RootDSE search
		w.Write(r.NewSearchResponseEntry(s.config.BaseDN))
		w.Write(r.NewSearchDoneResponse(gldap.WithResponseCode(gldap.ResultSuccess)))
		return
	}

	dn, err := ldap.ParseDN(m.BaseDN)
	if err != nil {
		logger.Error().Err(err).Msg("unable to parse dn")
		w.Write(r.NewSearchDoneResponse(gldap.WithResponseCode(gldap.ResultOperationsError)))
		return
	}
	baseDN := mustParseDN(s.config.BaseDN)
	if !baseDN.AncestorOf(dn) && !baseDN.Equal(dn) {
		logger.Error().Msg("dn outside base")
		w.Write(r.NewSearchDoneResponse(gldap.WithResponseCode(gldap.ResultNoSuchObject)))
		return
	}

	parsedFilter, err := ldap.CompileFilter(m.Filter)
	if err != nil {
		logger.Error().Err(err).Msg("unable to parse filter")
		w.Write(r.NewSearchDoneResponse(gldap.WithResponseCode(gldap.ResultOperationsError)))
		return
	}
	condition := equalityConditions(parsedFilter)

	rdns := rdnsToMap(dn.RDNs)
	ou := ""
	if ous := rdns["ou"]; len(ous) > 0 {
		ou = ous[0]
	}
	switch ou {
	case "people":
		s.searchPeople(w, r, condition, logger)
	case "groups":
		s.searchGroups(w, r, condition, logger)
	default:
		logger.Error().Str("ou", ou).Msg("invalid ou")
		w.Write(r.NewSearchDoneResponse(gldap.WithResponseCode(gldap.ResultNoSuchObject)))
	}
}

func (s *LdapServer) searchPeople(
	w *gldap.ResponseWriter, r *gldap.Request,
	condition map[string]string, logger zerolog.Logger,
) {
	ctx := context.Background()
	uid := condition["uid"]
	if uid == "" {
		// enumerate
		uids, err := s.users.GetUsers(ctx, "", -1, 0)
		if err != nil {
			logger.Error().Err(err).Msg("unable to list users")
			w.Write(r.NewSearchDoneResponse(gldap.WithResponseCode(gldap.ResultOperationsError)))
			return
		}
		for _, uid := range uids {
			w.Write(s.userEntry(ctx, r, uid))
		}
		w.Write(r.NewSearchDoneResponse(gldap.WithResponseCode(gldap.ResultSuccess)))
		return
	}

	exists, err := s.users.UserExists(ctx, uid)
	if err != nil {
		logger.Error().Err(err).Msg("unable to find user")
		w.Write(r.NewSearchDoneResponse(gldap.WithResponseCode(gldap.ResultOperationsError)))
		return
	}
	if exists {
		w.Write(s.userEntry(ctx, r, uid))
	}
	w.Write(r.NewSearchDoneResponse(gldap.WithResponseCode(gldap.ResultSuccess)))
}

func (s *LdapServer) userEntry(ctx context.Context, r *gldap.Request, uid string) *gldap.SearchResponseEntry {
	attributes := map[string][]string{
		"objectclass": {"person"},
		"ou":          {"people"},
		"uid":         {uid},
	}
	if name, err := s.users.GetDisplayName(ctx, uid); err == nil {
		attributes["displayname"] = []string{name}
		attributes["cn"] = []string{name}
	}
	return r.NewSearchResponseEntry(
		fmt.Sprintf("uid=%s,ou=people,%s", uid, s.config.BaseDN),
		gldap.WithAttributes(attributes),
	)
}

func (s *LdapServer) searchGroups(
	w *gldap.ResponseWriter, r *gldap.Request,
	condition map[string]string, logger zerolog.Logger,
) {
	ctx := context.Background()

	var gids []string
	var err error
	if memberDN := condition["member"]; memberDN != "" {
		parsed, err := ldap.ParseDN(memberDN)
		if err != nil {
			logger.Error().Err(err).Msg("unable to parse member dn")
			w.Write(r.NewSearchDoneResponse(gldap.WithResponseCode(gldap.ResultOperationsError)))
			return
		}
		uids := rdnsToMap(parsed.RDNs)["uid"]
		if len(uids) == 0 {
			w.Write(r.NewSearchDoneResponse(gldap.WithResponseCode(gldap.ResultSuccess)))
			return
		}
		gids, err = s.groups.GetUserGroups(ctx, uids[0])
		if err != nil {
			logger.Error().Err(err).Msg("unable to find groups")
			w.Write(r.NewSearchDoneResponse(gldap.WithResponseCode(gldap.ResultOperationsError)))
			return
		}
	} else {
		gids, err = s.groups.GetGroups(ctx, condition["cn"], -1, 0)
		if err != nil {
			logger.Error().Err(err).Msg("unable to list groups")
			w.Write(r.NewSearchDoneResponse(gldap.WithResponseCode(gldap.ResultOperationsError)))
			return
		}
	}

	for _, gid := range gids {
		name := gid
		if details, err := s.groups.GetGroupDetails(ctx, gid); err == nil {
			name = details["displayName"]
		}
		w.Write(r.NewSearchResponseEntry(
			fmt.Sprintf("cn=%s,ou=groups,%s", gid, s.config.BaseDN),
			gldap.WithAttributes(map[string][]string{
				"objectclass": {"group"},
				"ou":          {"groups"},
				"cn":          {name},
				"gid":         {gid},
			}),
		))
	}
	w.Write(r.NewSearchDoneResponse(gldap.WithResponseCode(gldap.ResultSuccess)))
}

func (s *LdapServer) modifyHandler(w *gldap.ResponseWriter, r *gldap.Request) {
	logger := s.log.With().Str("method", "modifyHandler").Int("id", r.ID).Logger()

	m, err := r.GetModifyMessage()
	if err != nil {
		logger.Error().Err(err).Msg("not a modify message")
		w.Write(r.NewModifyResponse(gldap.WithResponseCode(gldap.ResultOperationsError)))
		return
	}
	logger = logger.With().Str("dn", m.DN).Logger()
	logger.Debug().Msg("modify request")

	dn, err := ldap.ParseDN(m.DN)
	if err != nil {
		logger.Error().Err(err).Msg("unable to parse dn")
		w.Write(r.NewModifyResponse(gldap.WithResponseCode(gldap.ResultOperationsError)))
		return
	}
	baseDN := mustParseDN(s.config.BaseDN)
	if !baseDN.AncestorOf(dn) {
		logger.Error().Msg("dn outside base")
		w.Write(r.NewModifyResponse(gldap.WithResponseCode(gldap.ResultNoSuchObject)))
		return
	}

	rdns := rdnsToMap(dn.RDNs)
	uids := rdns["uid"]
	if len(uids) == 0 {
		w.Write(r.NewModifyResponse(gldap.WithResponseCode(gldap.ResultNoSuchObject)))
		return
	}

	for _, change := range m.Changes {
		if change.Modification.Type != "userPassword" || len(change.Modification.Vals) == 0 {
			continue
		}
		newPassword := strings.TrimSpace(change.Modification.Vals[0])
		err := s.users.SetPassword(context.Background(), uids[0], newPassword)
		switch {
		case errors.Is(err, backend.ErrNotSupported):
			logger.Warn().Msg("password change is disabled")
			w.Write(r.NewModifyResponse(gldap.WithResponseCode(gldap.ResultUnwillingToPerform)))
		case err != nil:
			logger.Error().Err(err).Msg("unable to update password")
			w.Write(r.NewModifyResponse(gldap.WithResponseCode(gldap.ResultOperationsError)))
		default:
			logger.Info().Str("uid", uids[0]).Msg("password updated")
			w.Write(r.NewModifyResponse(gldap.WithResponseCode(gldap.ResultSuccess)))
		}
		return
	}

	logger.Info().Msg("modify failed - userPassword not found")
	w.Write(r.NewModifyResponse(gldap.WithResponseCode(gldap.ResultUnwillingToPerform)))
}

// equalityConditions collects attribute=value pairs from the top level of a
// compiled filter. Nested expressions beyond a single and/or are ignored.
func equalityConditions(f *ber.Packet) map[string]string {
	condition := map[string]string{}
	collect := func(p *ber.Packet) {
		if p.Tag == ldap.FilterEqualityMatch && len(p.Children) == 2 {
			condition[p.Children[0].Data.String()] = p.Children[1].Data.String()
		}
	}
	collect(f)
	if f.Tag == ldap.FilterAnd || f.Tag == ldap.FilterOr {
		for _, child := range f.Children {
			collect(child)
		}
	}
	return condition
}

func rdnsToMap(rdns []*ldap.RelativeDN) map[string][]string {
	res := map[string][]string{}
	for _, a := range rdns {
		for _, v := range a.Attributes {
			res[v.Type] = append(res[v.Type], v.Value)
		}
	}
	return res
}
