package permission

// OwnerRoleName 创建社区时自动生成的拥有者角色
const OwnerRoleName = "President"

const (
	ManageCommunity  = "manage_community"
	ManageMembers    = "manage_members"
	ManageRoles      = "manage_roles"
	ManagePosts      = "manage_posts"
	ManageEvents     = "manage_events"
	ManagePositions  = "manage_positions"
	ManageSharedJobs = "manage_shared_jobs"
	SponsorPost      = "sponsor_post"
	ModerateContent  = "moderate_content"
)

// 角色 -> 默认权限集合，只在创建角色时作为种子数据使用
var defaults = map[string][]string{
	OwnerRoleName: {
		ManageCommunity,
		ManageMembers,
		ManageRoles,
		ManagePosts,
		ManageEvents,
		ManagePositions,
		ManageSharedJobs,
		SponsorPost,
		ModerateContent,
	},
}

var known = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, keys := range defaults {
		for _, k := range keys {
			m[k] = struct{}{}
		}
	}
	return m
}()

// Defaults 返回角色的默认权限（拷贝），未知角色返回 nil
func Defaults(role string) []string {
	keys, ok := defaults[role]
	if !ok {
		return nil
	}
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// IsKnown 判断权限 key 是否存在于目录中
func IsKnown(key string) bool {
	_, ok := known[key]
	return ok
}

// Keys 返回全部已知权限
func Keys() []string {
	return Defaults(OwnerRoleName)
}
