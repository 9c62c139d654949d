package scripts

// Sliding window state is a sorted set of admitted-request scores, keyed
// by the integer epoch-second the store observed the admission at.
// KEYS[1] is the set key. ARGV[1] is the window in seconds, ARGV[2] is
// the rate in requests/second; max_requests = floor(rate*window) and
// burst is deliberately not part of either script (the algorithm is
// smooth, per the canonical sliding-window interpretation).

var SlidingAttempt = register("sliding:attempt", `
local now = redis.call('TIME')
local now_sec = tonumber(now[1])
local now_micro = tonumber(now[2])
local window = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local max_requests = math.floor(rate * window)

redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now_sec - window)
local count = redis.call('ZCARD', KEYS[1])

if count >= max_requests then
  local retry_after = 1
  local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
  if oldest and #oldest >= 2 then
    local oldest_score = tonumber(oldest[2])
    retry_after = math.ceil((oldest_score + window) - now_sec)
    if retry_after < 1 then retry_after = 1 end
  end
  return {0, retry_after, 0, max_requests}
end

local tag = tostring(now_sec) .. '-' .. tostring(now_micro)
redis.call('ZADD', KEYS[1], now_sec, tag)
redis.call('EXPIRE', KEYS[1], window)
return {1, 0, max_requests - count - 1, max_requests}
`)

var SlidingCount = register("sliding:count", `
local now = redis.call('TIME')
local now_sec = tonumber(now[1])
local window = tonumber(ARGV[1])
return redis.call('ZCOUNT', KEYS[1], '(' .. tostring(now_sec - window), '+inf')
`)

var SlidingStatus = register("sliding:status", `
local now = redis.call('TIME')
local now_sec = tonumber(now[1])
local window = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local max_requests = math.floor(rate * window)

local count = redis.call('ZCOUNT', KEYS[1], '(' .. tostring(now_sec - window), '+inf')
local remaining = max_requests - count
if remaining < 0 then remaining = 0 end

local retry_after = 0
if count >= max_requests then
  retry_after = 1
  local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
  if oldest and #oldest >= 2 then
    local oldest_score = tonumber(oldest[2])
    retry_after = math.ceil((oldest_score + window) - now_sec)
    if retry_after < 1 then retry_after = 1 end
  end
end

return {count, remaining, retry_after, max_requests}
`)
